package jsonstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type rec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestOpen_InitializesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	c, err := Open[rec](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("initial file = %q, want []", string(data))
	}
	records, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len = %d, want 0", len(records))
	}
}

func TestSaveLoad_RoundTripPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	c, err := Open[rec](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Save([]rec{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	records, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 || records[1].Name != "b" {
		t.Errorf("records = %+v", records)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  {") {
		t.Errorf("snapshot not pretty-printed: %q", string(data))
	}
}

func TestUpdate_AbortsWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	c, _ := Open[rec](path)
	_ = c.Save([]rec{{ID: "1"}})

	wantErr := os.ErrInvalid
	err := c.Update(func(records []rec) ([]rec, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Fatalf("Update err = %v, want %v", err, wantErr)
	}
	records, _ := c.Load()
	if len(records) != 1 {
		t.Errorf("aborted update changed the file: %+v", records)
	}
}

func TestUpdate_SerializesConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	c, _ := Open[rec](path)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Update(func(records []rec) ([]rec, error) {
				return append(records, rec{ID: "x"}), nil
			})
		}()
	}
	wg.Wait()

	records, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != n {
		t.Errorf("len = %d, want %d (lost updates)", len(records), n)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	c, _ := Open[rec](path)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(); err == nil {
		t.Fatal("expected decode error for corrupt file")
	}
}
