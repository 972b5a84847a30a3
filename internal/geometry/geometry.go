package geometry

import (
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-geos"
)

// ErrDegenerateRing marks polygon rings with fewer than 4 points (including
// the closing point). The pipeline maps it to the degenerate-polygon error
// type instead of a generic parse failure.
var ErrDegenerateRing = errors.New("polygon ring has fewer than 4 points")

// Geometry is one parsed feature geometry: the raw coordinate structure for
// vertex-level checks plus a GEOS geometry for topology predicates.
type Geometry struct {
	geom *geos.Geom
	// parts[part][ring][vertex]; lines and points use a single ring per part.
	parts   [][][]Vector
	polygon bool
	point   bool
}

// Geos returns the underlying GEOS geometry.
func (g *Geometry) Geos() *geos.Geom {
	return g.geom
}

// Parts returns the vertex structure, part by ring.
func (g *Geometry) Parts() [][][]Vector {
	return g.parts
}

// IsPolygonal reports whether the geometry is a polygon or multipolygon.
func (g *Geometry) IsPolygonal() bool {
	return g.polygon
}

// IsPoint reports whether the geometry is a point or multipoint.
func (g *Geometry) IsPoint() bool {
	return g.point
}

// Destroy releases the GEOS geometry. Safe to call once per Geometry.
func (g *Geometry) Destroy() {
	if g.geom != nil {
		g.geom.Destroy()
		g.geom = nil
	}
}

// ParseGeometry is the valid-nodes gate: it parses a raw GeoJSON geometry
// string and verifies structural validity before any other check runs.
// Failure returns (nil, error) rather than panicking; the caller records a
// per-feature error and moves on.
func ParseGeometry(raw string) (*Geometry, error) {
	gj, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}

	parts, polygonal, point, err := extractParts(gj)
	if err != nil {
		return nil, err
	}

	geom, err := geos.NewGeomFromGeoJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("construct geometry: %w", err)
	}
	if geom.IsEmpty() {
		geom.Destroy()
		return nil, errors.New("empty geometry")
	}

	return &Geometry{geom: geom, parts: parts, polygon: polygonal, point: point}, nil
}

func extractParts(gj *geojson.Geometry) (parts [][][]Vector, polygonal, point bool, err error) {
	switch {
	case gj.IsPoint():
		return [][][]Vector{{{toVector(gj.Point)}}}, false, true, nil
	case gj.IsMultiPoint():
		for _, p := range gj.MultiPoint {
			parts = append(parts, [][]Vector{{toVector(p)}})
		}
		return parts, false, true, nil
	case gj.IsLineString():
		return [][][]Vector{{toVectors(gj.LineString)}}, false, false, nil
	case gj.IsMultiLineString():
		for _, line := range gj.MultiLineString {
			parts = append(parts, [][]Vector{toVectors(line)})
		}
		return parts, false, false, nil
	case gj.IsPolygon():
		rings, err := polygonRings(gj.Polygon)
		if err != nil {
			return nil, false, false, err
		}
		return [][][]Vector{rings}, true, false, nil
	case gj.IsMultiPolygon():
		for _, poly := range gj.MultiPolygon {
			rings, err := polygonRings(poly)
			if err != nil {
				return nil, false, false, err
			}
			parts = append(parts, rings)
		}
		return parts, true, false, nil
	default:
		return nil, false, false, fmt.Errorf("unsupported geometry type %q", gj.Type)
	}
}

func polygonRings(poly [][][]float64) ([][]Vector, error) {
	rings := make([][]Vector, 0, len(poly))
	for _, ring := range poly {
		if len(ring) < 4 {
			return nil, ErrDegenerateRing
		}
		rings = append(rings, toVectors(ring))
	}
	return rings, nil
}

func toVectors(coords [][]float64) []Vector {
	vectors := make([]Vector, len(coords))
	for i, c := range coords {
		vectors[i] = toVector(c)
	}
	return vectors
}

func toVector(c []float64) Vector {
	v := Vector{}
	if len(c) > 0 {
		v.X = c[0]
	}
	if len(c) > 1 {
		v.Y = c[1]
	}
	return v
}
