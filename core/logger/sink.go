package logger

import (
	"errors"
	"io"
	"os"
	"sync"
)

// sink writes whole lines to every output under one lock.
// A failing output does not block the others.
type sink struct {
	mu      sync.Mutex
	outputs []io.Writer
	closed  bool
}

func newSink(outputs ...io.Writer) *sink {
	return &sink{outputs: outputs}
}

func (s *sink) Write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var errs []error
	for _, w := range s.outputs {
		if _, err := w.Write(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes outputs that are closers, except stdout and stderr.
func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, w := range s.outputs {
		if c, ok := w.(io.Closer); ok && !isStdio(w) {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func isStdio(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}
