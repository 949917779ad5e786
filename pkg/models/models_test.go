package models

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
)

func TestRecordJSONFlattening(t *testing.T) {
	rec := Record{
		Key:     "harbor.geojson",
		Polygon: orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
		Meta:    map[string]any{"name": "Harbor", "zone": "industrial"},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal into map failed: %v", err)
	}
	for _, field := range []string{"file", "polygon", "name", "zone"} {
		if _, ok := flat[field]; !ok {
			t.Errorf("Flattened object missing %q field", field)
		}
	}
	if flat["file"] != "harbor.geojson" {
		t.Errorf("Unexpected file field: %v", flat["file"])
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := Record{
		Key:     "harbor.geojson",
		Polygon: orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
		Meta:    map[string]any{"name": "Harbor"},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if out.Key != rec.Key {
		t.Errorf("Key: got %q, expected %q", out.Key, rec.Key)
	}
	if len(out.Polygon) != len(rec.Polygon) {
		t.Fatalf("Polygon: got %d points, expected %d", len(out.Polygon), len(rec.Polygon))
	}
	for i := range rec.Polygon {
		if out.Polygon[i] != rec.Polygon[i] {
			t.Errorf("Polygon point %d: got %v, expected %v", i, out.Polygon[i], rec.Polygon[i])
		}
	}
	if out.Meta["name"] != "Harbor" {
		t.Errorf("Meta: got %v", out.Meta)
	}
}

func TestRecordUnmarshalForeignFields(t *testing.T) {
	data := `{"file": "a", "polygon": [[0,0],[0,1],[1,1],[1,0],[0,0]], "source": "survey-2024", "revision": 3}`

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if rec.Meta["source"] != "survey-2024" {
		t.Errorf("Foreign string field lost: %v", rec.Meta)
	}
	if rec.Meta["revision"] != float64(3) {
		t.Errorf("Foreign numeric field lost: %v", rec.Meta)
	}
	if _, ok := rec.Meta["file"]; ok {
		t.Error("Fixed field leaked into Meta")
	}
}

func TestRecordField(t *testing.T) {
	rec := &Record{
		Key:     "a",
		Polygon: orb.Ring{{0, 0}, {0, 1}, {1, 1}},
		Meta:    map[string]any{"zone": "industrial"},
	}

	if v, ok := rec.Field("file"); !ok || v != "a" {
		t.Errorf("Field(file) = %v, %v", v, ok)
	}
	if v, ok := rec.Field("polygon"); !ok || len(v.(orb.Ring)) != 3 {
		t.Errorf("Field(polygon) = %v, %v", v, ok)
	}
	if v, ok := rec.Field("zone"); !ok || v != "industrial" {
		t.Errorf("Field(zone) = %v, %v", v, ok)
	}
	if _, ok := rec.Field("missing"); ok {
		t.Error("Field(missing) reported a value")
	}
}

func TestRecordClone(t *testing.T) {
	rec := &Record{
		Key:     "a",
		Polygon: orb.Ring{{0, 0}, {0, 1}, {1, 1}},
		Meta:    map[string]any{"zone": "industrial"},
	}

	clone := rec.Clone()
	clone.Polygon[0] = orb.Point{99, 99}
	clone.Meta["zone"] = "residential"

	if rec.Polygon[0] != (orb.Point{0, 0}) {
		t.Error("Clone shares the polygon ring")
	}
	if rec.Meta["zone"] != "industrial" {
		t.Error("Clone shares the metadata map")
	}
}

func TestEntryBound(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{1, 2}, Max: orb.Point{3, 4}}
	entry := NewEntry(7, bound, &Record{Key: "a"})

	if entry.ID != 7 {
		t.Errorf("ID: got %d", entry.ID)
	}
	if entry.BBox != [4]float64{1, 2, 3, 4} {
		t.Errorf("BBox: got %v", entry.BBox)
	}
	if entry.Bound() != bound {
		t.Errorf("Bound round trip: got %v", entry.Bound())
	}
}
