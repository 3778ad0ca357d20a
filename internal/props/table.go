package props

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// Table is the aggregate property store: run id -> attribute -> value.
type Table map[string]map[string]any

// RunIDs returns the ids in sorted order for deterministic iteration.
func (t Table) RunIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EvalDir is the evaluation directory holding the merged properties of an
// experiment directory.
func EvalDir(expDir string) string {
	return expDir + "-eval"
}

// Save writes the table as indented JSON plus a zstd-compressed copy next
// to it. Large suites produce properties files in the hundreds of
// megabytes; the compressed copy is the one worth archiving.
func Save(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return err
	}

	f, err := os.Create(path + ".zst")
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Load reads a table previously written by Save, preferring the plain
// JSON file and falling back to the compressed copy.
func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		var f *os.File
		f, err = os.Open(path + ".zst")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		var r *zstd.Decoder
		r, err = zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		b, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, err
	}
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return t, nil
}
