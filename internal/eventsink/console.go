package eventsink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleSink writes one event per line.
type ConsoleSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewConsoleSink writes events to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: bufio.NewWriter(w)}
}

// Send writes the batch and flushes.
func (c *ConsoleSink) Send(_ context.Context, batch []Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range batch {
		if _, err := c.w.Write(m.Value); err != nil {
			return fmt.Errorf("console write failed: %w", err)
		}
		if err := c.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("console write failed: %w", err)
		}
	}
	return c.w.Flush()
}

// Close flushes pending output.
func (c *ConsoleSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Flush()
}

// Name returns "console".
func (c *ConsoleSink) Name() string { return "console" }

// FileSink appends newline-delimited JSON to a file.
type FileSink struct {
	*ConsoleSink
	f    *os.File
	path string
}

// NewFileSink opens path for appending, creating it if needed.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &FileSink{ConsoleSink: NewConsoleSink(f), f: f, path: path}, nil
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if err := s.ConsoleSink.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// Name returns "file:<path>".
func (s *FileSink) Name() string { return "file:" + s.path }
