// Package index implements a polygon file index: a mapping from a
// unique file key to a polygon region, accelerated by an R-Tree over
// bounding boxes. The tree prunes candidates, every query result is
// re-validated against the exact stored polygon before it is returned.
//
// The index assumes a single logical writer/reader; callers needing
// concurrent access must serialize externally.
package index

import (
	"errors"
	"iter"

	"github.com/cespare/xxhash/v2"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/kass/go-polygon-index/pkg/geometry"
	"github.com/kass/go-polygon-index/pkg/models"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// defaultTolerance is the per-coordinate tolerance under which an
	// updated polygon counts as unchanged.
	defaultTolerance = 1e-6

	// minRectLength keeps degenerate bounding boxes acceptable to the
	// tree, which rejects zero-length rectangle sides.
	minRectLength = 1e-9
)

// ErrMalformedRecord is returned by Insert and Update when a record is
// missing its file key or polygon. The index is left untouched.
var ErrMalformedRecord = errors.New("index: record needs file and polygon fields")

// Hasher derives the stable tree node identifier from a file key. It
// must be deterministic across process runs.
type Hasher func(key string) uint64

// entry is one indexed region. It implements rtreego.Spatial; the
// tree locates it by bounding box and the registry by key.
type entry struct {
	id     uint64
	record *models.Record
	poly   geometry.Polygon
	bound  orb.Bound
	rect   *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect {
	return e.rect
}

// Index is a spatial index over keyed polygon regions.
type Index struct {
	tree     *rtreego.Rtree
	registry map[string]*entry
	hash     Hasher
	tol      float64

	// running union of every bound ever inserted; used to enumerate
	// the whole tree. Never shrinks, which is harmless for a superset
	// search.
	bound    orb.Bound
	hasBound bool
}

// Option configures an Index at construction time.
type Option func(*Index)

// WithHasher replaces the default xxhash key hasher.
func WithHasher(h Hasher) Option {
	return func(idx *Index) {
		if h != nil {
			idx.hash = h
		}
	}
}

// WithTolerance sets the coordinate tolerance for update change
// detection.
func WithTolerance(tolerance float64) Option {
	return func(idx *Index) {
		if tolerance > 0 {
			idx.tol = tolerance
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	idx := &Index{
		tree:     rtreego.NewTree(dimensions, minChildren, maxChildren),
		registry: make(map[string]*entry),
		hash:     xxhash.Sum64String,
		tol:      defaultTolerance,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// empty creates an index sharing this index's collaborators, for
// derived results of Intersect and Filter.
func (idx *Index) empty() *Index {
	return New(WithHasher(idx.hash), WithTolerance(idx.tol))
}

func checkRecord(rec *models.Record) error {
	if rec == nil || rec.Key == "" || len(rec.Polygon) == 0 {
		return ErrMalformedRecord
	}
	return nil
}

// Insert adds a record to the index. A key already present is a
// silent no-op: the first write wins, even if the polygon differs.
// The index is never partially mutated on failure.
func (idx *Index) Insert(rec *models.Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	if _, ok := idx.registry[rec.Key]; ok {
		return nil
	}
	poly, err := geometry.NewPolygon(rec.Polygon)
	if err != nil {
		return err
	}
	return idx.add(idx.hash(rec.Key), poly, poly.Bound(), rec)
}

// Update inserts a new key or replaces an existing key's geometry,
// reporting whether anything changed. Geometry equal to the stored
// polygon within the tolerance is treated as a replay and leaves the
// index untouched.
func (idx *Index) Update(rec *models.Record) (bool, error) {
	if err := checkRecord(rec); err != nil {
		return false, err
	}
	old, ok := idx.registry[rec.Key]
	if !ok {
		if err := idx.Insert(rec); err != nil {
			return false, err
		}
		return true, nil
	}

	poly, err := geometry.NewPolygon(rec.Polygon)
	if err != nil {
		return false, err
	}
	if old.poly.ApproxEqual(poly, idx.tol) {
		return false, nil
	}

	idx.tree.Delete(old)
	delete(idx.registry, rec.Key)
	if err := idx.add(idx.hash(rec.Key), poly, poly.Bound(), rec); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the record stored under key, reporting whether it
// existed.
func (idx *Index) Delete(key string) bool {
	e, ok := idx.registry[key]
	if !ok {
		return false
	}
	idx.tree.Delete(e)
	delete(idx.registry, key)
	return true
}

// add stores a fully validated record. Nothing is mutated before the
// tree rectangle is known to be buildable.
func (idx *Index) add(id uint64, poly geometry.Polygon, bound orb.Bound, rec *models.Record) error {
	rect, err := rectFromBound(bound)
	if err != nil {
		return err
	}
	e := &entry{id: id, record: rec, poly: poly, bound: bound, rect: rect}
	idx.registry[rec.Key] = e
	idx.tree.Insert(e)
	idx.growBound(bound)
	return nil
}

// Nearest yields records containing the point, drawn from the single
// closest-by-bounding-box tree candidate. Polygons containing the
// point but not nearest by bounding box are not reported; this narrow
// contract is deliberate, Covering is the exhaustive variant.
// Each call returns a fresh sequence.
func (idx *Index) Nearest(point orb.Point) iter.Seq[*models.Record] {
	return func(yield func(*models.Record) bool) {
		if idx.tree.Size() == 0 {
			return
		}
		for _, c := range idx.tree.NearestNeighbors(1, rtreego.Point{point[0], point[1]}) {
			if c == nil {
				continue
			}
			e := c.(*entry)
			if !e.poly.Contains(point) {
				continue
			}
			if !yield(e.record) {
				return
			}
		}
	}
}

// Covering yields every record whose polygon contains the point.
func (idx *Index) Covering(point orb.Point) iter.Seq[*models.Record] {
	return func(yield func(*models.Record) bool) {
		if idx.tree.Size() == 0 {
			return
		}
		rect, err := rectFromBound(orb.Bound{Min: point, Max: point})
		if err != nil {
			return
		}
		for _, c := range idx.tree.SearchIntersect(rect) {
			e := c.(*entry)
			if !e.poly.Contains(point) {
				continue
			}
			if !yield(e.record) {
				return
			}
		}
	}
}

// Intersect clips the index against a query polygon and returns the
// result as a new, independent index. Stored regions whose
// intersection with the query is empty or not a single simple polygon
// are dropped. Surviving records keep their key and metadata with the
// polygon replaced by the clipped boundary.
func (idx *Index) Intersect(ring orb.Ring) (*Index, error) {
	res := idx.empty()
	if idx.tree.Size() == 0 {
		return res, nil
	}

	query, err := geometry.NewPolygon(ring)
	if err != nil {
		return nil, err
	}
	rect, err := rectFromBound(query.Bound())
	if err != nil {
		return nil, err
	}

	for _, c := range idx.tree.SearchIntersect(rect) {
		e := c.(*entry)
		clipped, ok := query.Intersect(e.poly)
		if !ok {
			continue
		}
		out := e.record.Clone()
		out.Polygon = clipped
		if err := res.Insert(out); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Filter returns a new index holding the records the predicate
// accepts. A nil predicate accepts everything.
func (idx *Index) Filter(keep func(*models.Record) bool) *Index {
	res := idx.empty()
	if idx.tree.Size() == 0 {
		return res
	}
	for _, e := range idx.allEntries() {
		if keep != nil && !keep(e.record) {
			continue
		}
		// records coming out of a live index always re-insert cleanly
		_ = res.Insert(e.record)
	}
	return res
}

// Size returns the number of stored records.
func (idx *Index) Size() int {
	return idx.tree.Size()
}

// Bound returns the union of every bounding box inserted so far. The
// second return is false for an index that never held a record.
func (idx *Index) Bound() (orb.Bound, bool) {
	return idx.bound, idx.hasBound
}

// Keys yields every stored file key in tree traversal order. Each
// call returns a fresh sequence.
func (idx *Index) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, e := range idx.allEntries() {
			if !yield(e.record.Key) {
				return
			}
		}
	}
}

// Values yields every stored record's value for a named field, with
// ok=false marking records missing the field. "file" resolves to the
// key and "polygon" to the ring; anything else is a metadata lookup.
func (idx *Index) Values(field string) iter.Seq2[any, bool] {
	return func(yield func(any, bool) bool) {
		for _, e := range idx.allEntries() {
			v, ok := e.record.Field(field)
			if !yield(v, ok) {
				return
			}
		}
	}
}

// Iterate yields every stored record. No ordering is guaranteed
// beyond the tree's own traversal; each call returns a fresh
// sequence.
func (idx *Index) Iterate() iter.Seq[*models.Record] {
	return func(yield func(*models.Record) bool) {
		for _, e := range idx.allEntries() {
			if !yield(e.record) {
				return
			}
		}
	}
}

// allEntries enumerates the tree by searching its full running bound,
// the same trick the tree's own persistence uses.
func (idx *Index) allEntries() []*entry {
	if idx.tree.Size() == 0 || !idx.hasBound {
		return nil
	}
	rect, err := rectFromBound(idx.bound)
	if err != nil {
		return nil
	}
	spatials := idx.tree.SearchIntersect(rect)
	entries := make([]*entry, 0, len(spatials))
	for _, s := range spatials {
		entries = append(entries, s.(*entry))
	}
	return entries
}

func (idx *Index) growBound(b orb.Bound) {
	if !idx.hasBound {
		idx.bound = b
		idx.hasBound = true
		return
	}
	idx.bound = idx.bound.Union(b)
}

func rectFromBound(b orb.Bound) (*rtreego.Rect, error) {
	lengths := []float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]}
	for i, l := range lengths {
		if l < minRectLength {
			lengths[i] = minRectLength
		}
	}
	return rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, lengths)
}
