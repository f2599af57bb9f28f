// Package resultlog implements an append-only JSON Lines file that doubles as a resume checkpoint.
//
// Writers call Append concurrently; each record becomes exactly one complete line written under a
// single lock, so an interrupted run always leaves a parseable file. On startup the file is read
// back with Scan to recover which records already exist.
package resultlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Log is an append-only JSONL file shared by concurrent writers.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens path for appending, creating it and its parent directory when needed.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	return &Log{path: path, file: file}, nil
}

// Path returns the file backing the log.
func (l *Log) Path() string { return l.path }

// Append marshals record and writes it as one line. The lock is held only for the write.
func (l *Log) Append(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return errors.New("results log is closed")
	}
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Further appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Scan calls fn with every non-blank line of the file at path, in file order, with its 1-based
// line number. A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func Scan(path string, fn func(lineNo int, line []byte)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ScanReader(file, fn)
}

// ScanReader is Scan over an arbitrary reader. Lines may be of any length.
func ScanReader(r io.Reader, fn func(lineNo int, line []byte)) error {
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				fn(lineNo, trimmed)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
