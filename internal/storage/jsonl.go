package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"poolLedger/internal/model"
)

// JsonlWriter appends JSON values to a file, one per line.
type JsonlWriter struct {
	path string
	mu   sync.Mutex
}

func NewJsonlWriter(path string) *JsonlWriter {
	return &JsonlWriter{path: path}
}

func (w *JsonlWriter) Path() string {
	return w.path
}

// Append writes every value as a JSON line. The file is opened per call so a
// crashed run never leaves a half-buffered writer behind.
func (w *JsonlWriter) Append(values ...interface{}) error {
	if len(values) == 0 {
		return nil
	}

	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, value := range values {
		line, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// JsonlStorage writes log records to a JSONL file.
type JsonlStorage struct {
	writer *JsonlWriter
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{writer: NewJsonlWriter(path)}
}

// PutLogBatch appends a batch of log records as JSON lines.
func (s *JsonlStorage) PutLogBatch(logs []model.LogRecord) error {
	values := make([]interface{}, 0, len(logs))
	for _, record := range logs {
		values = append(values, record)
	}
	return s.writer.Append(values...)
}
