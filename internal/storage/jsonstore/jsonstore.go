// Package jsonstore persists entity collections as whole-file JSON array
// snapshots. Every mutation rewrites the full file (pretty-printed, UTF-8);
// writes go to a temp file first and are renamed into place so a crash
// mid-write cannot truncate the collection. A per-collection mutex
// serializes read-modify-write cycles.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Collection is a JSON-array file holding records of type T.
type Collection[T any] struct {
	mu   sync.Mutex
	path string
}

// Open returns a Collection backed by the given file, creating the parent
// directory and an empty "[]" file on first run.
func Open[T any](path string) (*Collection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonstore: create dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeSnapshot(path, []T{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("jsonstore: stat %s: %w", path, err)
	}
	return &Collection[T]{path: path}, nil
}

// Load reads the entire collection.
func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Save overwrites the entire collection.
func (c *Collection[T]) Save(records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeSnapshot(c.path, records)
}

// Update loads the collection, applies fn, and saves the result, all under
// the collection lock. fn returning an error aborts without writing. This
// is the single serialization point for compare-and-set transitions.
func (c *Collection[T]) Update(fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, err := c.load()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return writeSnapshot(c.path, updated)
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("jsonstore: read %s: %w", c.path, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("jsonstore: decode %s: %w", c.path, err)
	}
	return records, nil
}

func writeSnapshot[T any](path string, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonstore: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: rename %s: %w", path, err)
	}
	return nil
}
