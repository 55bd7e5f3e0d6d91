package score

import (
	"fmt"
	"os"
	"sync"
)

// FileWriter appends entries to a file, one JSON object per line.
type FileWriter struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileWriter opens path for appending, creating it if needed.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open score file: %w", err)
	}
	return &FileWriter{f: f}, nil
}

// WriteScore appends e as one line.
func (w *FileWriter) WriteScore(e Entry) error {
	line, err := FormatEntry(e)
	if err != nil {
		return fmt.Errorf("format entry: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("write score file: %w", err)
	}
	return nil
}

// Close closes the file.
func (w *FileWriter) Close() error {
	return w.f.Close()
}
