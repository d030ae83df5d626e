package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
)

// WriteReportFile renders into path while holding an advisory lock on
// path+".lock", so concurrent runs sharing a report path do not interleave.
func WriteReportFile(path string, render func(io.Writer) error) (err error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock report file: %w", uerr)
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}()

	buf := bufio.NewWriter(f)
	if err := render(buf); err != nil {
		return err
	}
	return buf.Flush()
}
