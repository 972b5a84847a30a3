package geometry

import (
	"github.com/twpayne/go-geos"

	"github.com/georepo-validation/internal/pkg/utils"
)

// OverlapRatios computes the fractional area overlap in both directions:
// area(intersection)/area(new) and area(intersection)/area(old). The two are
// asymmetric on purpose: boundaries grow and shrink between revisions and
// either ratio alone is misleading.
func OverlapRatios(newGeom, oldGeom *geos.Geom) (ratioNew, ratioOld float64) {
	if newGeom == nil || oldGeom == nil {
		return 0, 0
	}
	newArea := newGeom.Area()
	oldArea := oldGeom.Area()
	if newArea == 0 || oldArea == 0 {
		return 0, 0
	}
	intersection := newGeom.Intersection(oldGeom)
	if intersection == nil {
		return 0, 0
	}
	defer intersection.Destroy()
	shared := intersection.Area()
	return shared / newArea, shared / oldArea
}

// CentroidDistance returns the distance in meters between the two
// geometries' points on surface. Point-on-surface is used instead of the
// bounding-box center so the anchor stays inside irregular shapes.
func CentroidDistance(a, b *geos.Geom) float64 {
	if a == nil || b == nil {
		return 0
	}
	pa := a.PointOnSurface()
	if pa == nil {
		return 0
	}
	defer pa.Destroy()
	pb := b.PointOnSurface()
	if pb == nil {
		return 0
	}
	defer pb.Destroy()
	// Coordinates are lon/lat in EPSG:4326.
	return utils.HaversineDistance(pa.Y(), pa.X(), pb.Y(), pb.X()) * 1000
}
