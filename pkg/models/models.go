// Package models defines the record type stored by the polygon index
// and its persisted on-disk form.
package models

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// Record associates a unique file key with a polygon region. Meta
// carries arbitrary pass-through fields; they are flattened next to
// "file" and "polygon" in the JSON encoding so foreign fields survive
// a save/load round trip untouched.
type Record struct {
	Key     string
	Polygon orb.Ring
	Meta    map[string]any
}

// Field returns the record's value for a named field. The fixed
// "file" and "polygon" fields resolve to Key and Polygon, everything
// else is a metadata lookup.
func (r *Record) Field(name string) (any, bool) {
	switch name {
	case "file":
		return r.Key, true
	case "polygon":
		return r.Polygon, true
	}
	v, ok := r.Meta[name]
	return v, ok
}

// Clone returns a deep-enough copy: the polygon ring and metadata map
// are copied, metadata values are shared.
func (r *Record) Clone() *Record {
	out := &Record{Key: r.Key}
	if r.Polygon != nil {
		out.Polygon = make(orb.Ring, len(r.Polygon))
		copy(out.Polygon, r.Polygon)
	}
	if r.Meta != nil {
		out.Meta = make(map[string]any, len(r.Meta))
		for k, v := range r.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// MarshalJSON flattens the record into a single object: metadata
// fields sit alongside "file" and "polygon".
func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Meta)+2)
	for k, v := range r.Meta {
		if k == "file" || k == "polygon" {
			continue
		}
		obj[k] = v
	}
	obj["file"] = r.Key
	obj["polygon"] = r.Polygon
	return json.Marshal(obj)
}

// UnmarshalJSON is the inverse of MarshalJSON: the fixed fields are
// extracted and every remaining object member lands in Meta.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fixed struct {
		Key     string   `json:"file"`
		Polygon orb.Ring `json:"polygon"`
	}
	if err := json.Unmarshal(data, &fixed); err != nil {
		return err
	}
	var rest map[string]any
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	delete(rest, "file")
	delete(rest, "polygon")
	if len(rest) == 0 {
		rest = nil
	}
	r.Key = fixed.Key
	r.Polygon = fixed.Polygon
	r.Meta = rest
	return nil
}

// Entry is the persisted form of one tree node: the node identifier,
// its bounding box as [minX, minY, maxX, maxY], and the record payload.
type Entry struct {
	ID     uint64     `json:"id"`
	BBox   [4]float64 `json:"bbox"`
	Object *Record    `json:"object"`
}

// NewEntry builds the persisted triple for a record.
func NewEntry(id uint64, bound orb.Bound, rec *Record) Entry {
	return Entry{
		ID:     id,
		BBox:   [4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]},
		Object: rec,
	}
}

// Bound reconstructs the bounding box stored in the entry.
func (e Entry) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.BBox[0], e.BBox[1]},
		Max: orb.Point{e.BBox[2], e.BBox[3]},
	}
}
