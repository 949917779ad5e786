package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kass/go-polygon-index/pkg/geometry"
	"github.com/kass/go-polygon-index/pkg/models"
)

// ErrPersistenceRead is returned by Load for I/O failures and
// unparsable top-level structure. Individual malformed entries inside
// a readable file are skipped silently instead.
var ErrPersistenceRead = errors.New("index: cannot read persisted index")

// Save writes every tree entry as an {id, bbox, object} triple to a
// JSON array. The registry is not persisted; Load rebuilds it from
// the record payloads.
func (idx *Index) Save(w io.Writer) error {
	entries := make([]models.Entry, 0, idx.tree.Size())
	for _, e := range idx.allEntries() {
		entries = append(entries, models.NewEntry(e.id, e.bound, e.record))
	}
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return nil
}

// SaveFile saves the index to a JSON file.
func (idx *Index) SaveFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	return idx.Save(file)
}

// Load merges persisted entries into the index; it does not clear
// existing state first, so callers wanting a clean load start from a
// fresh index. Persisted node identifiers and bounding boxes are
// trusted as written. Entries missing the required record fields, or
// whose polygon cannot be rebuilt, are skipped. A key already present
// is replaced, keeping registry and tree in lockstep.
func (idx *Index) Load(r io.Reader) error {
	var entries []models.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}

	for _, pe := range entries {
		rec := pe.Object
		if checkRecord(rec) != nil {
			continue
		}
		poly, err := geometry.NewPolygon(rec.Polygon)
		if err != nil {
			continue
		}
		if old, ok := idx.registry[rec.Key]; ok {
			idx.tree.Delete(old)
			delete(idx.registry, rec.Key)
		}
		if err := idx.add(pe.ID, poly, pe.Bound(), rec); err != nil {
			continue
		}
	}
	return nil
}

// LoadFile loads a saved index from a JSON file.
func (idx *Index) LoadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}
	defer file.Close()
	return idx.Load(file)
}
