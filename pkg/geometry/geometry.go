// Package geometry wraps the planar polygon operations the index
// relies on: construction from a coordinate ring, bounding boxes,
// point containment, polygon intersection and tolerance equality.
//
// Containment runs on orb's planar routines; overlay operations and
// approximate equality go through simplefeatures, since orb carries
// no polygon-polygon set operations.
package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidPolygon reports a ring that does not describe a simple
// polygon (too few points, self-intersection, zero area).
var ErrInvalidPolygon = errors.New("geometry: ring does not describe a simple polygon")

// Polygon is an immutable simple polygon with its precomputed
// bounding box. The zero value is not usable; build one with
// NewPolygon.
type Polygon struct {
	ring  orb.Ring
	bound orb.Bound
	g     geom.Polygon
}

// NewPolygon builds a polygon from an ordered coordinate ring. The
// closing point is optional on input; the stored exterior ring is
// always closed. The ring is validated, so a Polygon that exists is
// always a usable simple polygon.
func NewPolygon(ring orb.Ring) (Polygon, error) {
	if len(ring) < 3 {
		return Polygon{}, ErrInvalidPolygon
	}
	closed := make(orb.Ring, len(ring), len(ring)+1)
	copy(closed, ring)
	if !closed.Closed() {
		closed = append(closed, closed[0])
	}

	coords := make([]float64, 0, 2*len(closed))
	for _, pt := range closed {
		coords = append(coords, pt[0], pt[1])
	}
	shell := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	poly := geom.NewPolygon([]geom.LineString{shell})
	if err := poly.Validate(); err != nil {
		return Polygon{}, fmt.Errorf("%w: %v", ErrInvalidPolygon, err)
	}

	return Polygon{ring: closed, bound: closed.Bound(), g: poly}, nil
}

// Bound returns the polygon's axis-aligned bounding box.
func (p Polygon) Bound() orb.Bound {
	return p.bound
}

// Exterior returns the closed exterior ring.
func (p Polygon) Exterior() orb.Ring {
	return p.ring
}

// Contains reports whether the point lies inside the polygon.
// Boundary points count as contained.
func (p Polygon) Contains(point orb.Point) bool {
	return planar.PolygonContains(orb.Polygon{p.ring}, point)
}

// ApproxEqual reports whether both polygons have the same boundary
// coordinates within the given per-coordinate tolerance.
func (p Polygon) ApproxEqual(other Polygon, tolerance float64) bool {
	return geom.ExactEquals(p.g.AsGeometry(), other.g.AsGeometry(), geom.ToleranceXY(tolerance))
}

// Intersect computes the geometric intersection of both polygons and
// returns its exterior ring. The second return is false when the
// intersection is empty or is not a single simple polygon (points,
// lines and multi-part results are dropped, not decomposed).
func (p Polygon) Intersect(other Polygon) (orb.Ring, bool) {
	out, err := geom.Intersection(p.g.AsGeometry(), other.g.AsGeometry())
	if err != nil || out.IsEmpty() || out.Type() != geom.TypePolygon {
		return nil, false
	}

	seq := out.MustAsPolygon().ExteriorRing().Coordinates()
	ring := make(orb.Ring, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		ring[i] = orb.Point{xy.X, xy.Y}
	}
	return ring, true
}
