package tour

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a registry has no tour with the requested name.
var ErrNotFound = errors.New("tour not found")

// Registry lists and loads tours by name.
// Implementations must be safe for concurrent use.
type Registry interface {
	// List returns the sorted names of tours matching any of the regular
	// expression filters, or every tour when no filter is given.
	List(filters ...string) ([]string, error)
	// Load returns the tour with the given name. The returned tour is shared
	// and must be treated as read-only.
	Load(name string) (*Tour, error)
}

// DirRegistry discovers *.yaml and *.yml tour files under a directory tree.
// The tour name is the file's base name without extension.
type DirRegistry struct {
	root string

	mu      sync.Mutex
	paths   map[string]string
	entries map[string]*loadEntry
}

// loadEntry parses one tour file at most once. Callers for the same name wait
// on once; different names parse in parallel.
type loadEntry struct {
	once sync.Once
	tour *Tour
	err  error
}

// NewDirRegistry scans root for tour files.
func NewDirRegistry(root string) (*DirRegistry, error) {
	paths := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		name := baseName(path)
		if prev, ok := paths[name]; ok {
			return fmt.Errorf("duplicate tour name %q in %s and %s", name, prev, path)
		}
		paths[name] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan tours in %s: %w", root, err)
	}
	return &DirRegistry{
		root:    root,
		paths:   paths,
		entries: make(map[string]*loadEntry),
	}, nil
}

// List implements Registry.
func (r *DirRegistry) List(filters ...string) ([]string, error) {
	r.mu.Lock()
	names := make([]string, 0, len(r.paths))
	for name := range r.paths {
		names = append(names, name)
	}
	r.mu.Unlock()
	return filterNames(names, filters)
}

// Load implements Registry. Parsed tours are cached.
func (r *DirRegistry) Load(name string) (*Tour, error) {
	r.mu.Lock()
	path, ok := r.paths[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q in %s", ErrNotFound, name, r.root)
	}
	e, ok := r.entries[name]
	if !ok {
		e = &loadEntry{}
		r.entries[name] = e
	}
	r.mu.Unlock()

	e.once.Do(func() { e.tour, e.err = LoadFile(path) })
	return e.tour, e.err
}

// MemoryRegistry serves tours held in memory.
type MemoryRegistry struct {
	mu    sync.RWMutex
	tours map[string]*Tour
}

// NewMemoryRegistry registers the given tours by name.
func NewMemoryRegistry(tours ...*Tour) *MemoryRegistry {
	r := &MemoryRegistry{tours: make(map[string]*Tour, len(tours))}
	for _, t := range tours {
		r.tours[t.Name] = t
	}
	return r
}

// Add registers or replaces a tour.
func (r *MemoryRegistry) Add(t *Tour) {
	r.mu.Lock()
	r.tours[t.Name] = t
	r.mu.Unlock()
}

// List implements Registry.
func (r *MemoryRegistry) List(filters ...string) ([]string, error) {
	r.mu.RLock()
	names := make([]string, 0, len(r.tours))
	for name := range r.tours {
		names = append(names, name)
	}
	r.mu.RUnlock()
	return filterNames(names, filters)
}

// Load implements Registry.
func (r *MemoryRegistry) Load(name string) (*Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tours[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, nil
}

func filterNames(names []string, filters []string) ([]string, error) {
	var patterns []*regexp.Regexp
	for _, f := range filters {
		if f == "" {
			continue
		}
		re, err := regexp.Compile(f)
		if err != nil {
			return nil, fmt.Errorf("tour filter %q: %w", f, err)
		}
		patterns = append(patterns, re)
	}

	selected := names[:0]
	for _, name := range names {
		if len(patterns) == 0 {
			selected = append(selected, name)
			continue
		}
		for _, re := range patterns {
			if re.MatchString(name) {
				selected = append(selected, name)
				break
			}
		}
	}
	sort.Strings(selected)
	return selected, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
