package variables

import "testing"

func TestExpand(t *testing.T) {
	store := NewStore(map[string]string{"runner_id": "3"})
	store.Set("token", "abc")
	record := map[string]string{"email": "a@example.com", "token": "from-record"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"store value", "Bearer {{token}}", "Bearer abc"},
		{"record value", "user={{email}}", "user=a@example.com"},
		{"seeded value", "/runners/{{runner_id}}", "/runners/3"},
		{"default", "{{missing|guest}}", "guest"},
		{"empty default", "x{{missing|}}y", "xy"},
		{"unresolved", "{{missing}}", "{{missing}}"},
		{"no placeholders", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.template, store, record); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestExpandNilStore(t *testing.T) {
	if got := Expand("{{a}}", nil, map[string]string{"a": "1"}); got != "1" {
		t.Errorf("Expand() = %q, want 1", got)
	}
}

func TestExpandMap(t *testing.T) {
	if ExpandMap(nil, nil, nil) != nil {
		t.Errorf("expected nil for empty map")
	}
	out := ExpandMap(map[string]string{"Authorization": "Bearer {{t}}"}, NewStore(map[string]string{"t": "x"}), nil)
	if out["Authorization"] != "Bearer x" {
		t.Errorf("ExpandMap() = %v", out)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	s := NewStore(nil)
	s.Set("a", "1")
	all := s.All()
	all["a"] = "2"
	if v, _ := s.Get("a"); v != "1" {
		t.Errorf("All() shares storage with store")
	}
}
