// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/status"
)

// Fanout delivers every result to all of its writers.
// One failing writer does not stop the others.
type Fanout struct {
	names   []string
	writers []Writer
}

func New() *Fanout {
	return &Fanout{}
}

// Add registers w under name. name only appears in error messages.
func (f *Fanout) Add(name string, w Writer) {
	f.names = append(f.names, name)
	f.writers = append(f.writers, w)
}

// Len is the number of registered writers.
func (f *Fanout) Len() int { return len(f.writers) }

func (f *Fanout) Write(res poller.Result) error {
	var errs []string

	for i, w := range f.writers {
		if err := w.Write(res); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: %s seq=%d err=%v",
				f.names[i], res.Seq, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// WriteStatus forwards s to the writers that accept status.
func (f *Fanout) WriteStatus(s status.Snapshot) error {
	var errs []string

	for i, w := range f.writers {
		sw, ok := w.(StatusWriter)
		if !ok {
			continue
		}
		if err := sw.WriteStatus(s); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: %s status err=%v",
				f.names[i], err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// Close closes every writer that holds a transport.
func (f *Fanout) Close() error {
	var errs []string

	for i, w := range f.writers {
		c, ok := w.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("writer: %s close err=%v", f.names[i], err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
