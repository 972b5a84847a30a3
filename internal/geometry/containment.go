package geometry

import (
	"github.com/twpayne/go-geos"

	"github.com/georepo-validation/internal/domain"
)

// ContainmentCheck tests whether a child geometry lies within its parent.
// A nil parent returns noParent=true with no errors; whether that is fatal
// is the caller's call (it is, except for level-0 entities).
//
// Exact containment is too strict for boundaries digitized independently at
// different admin levels, so the predicate is tolerant: covered-by (shared
// edges are fine), or an escaped-area ratio within tolerance.
func ContainmentCheck(child *Geometry, featureIdx int, parent *geos.Geom, tolerance float64) (errs []domain.CheckError, noParent bool, geomErr *domain.CheckError) {
	if parent == nil {
		return nil, true, nil
	}
	childGeom := child.Geos()
	if childGeom.IsEmpty() || childGeom.Area() == 0 {
		return nil, false, &domain.CheckError{
			Type:       domain.ErrorGeometryValidity,
			FeatureIdx: featureIdx,
		}
	}

	if childGeom.CoveredBy(parent) {
		return nil, false, nil
	}

	escaped := childGeom.Difference(parent)
	if escaped == nil {
		return nil, false, &domain.CheckError{
			Type:       domain.ErrorGeometryValidity,
			FeatureIdx: featureIdx,
		}
	}
	defer escaped.Destroy()

	ratio := escaped.Area() / childGeom.Area()
	if ratio <= tolerance {
		return nil, false, nil
	}

	err := domain.CheckError{
		Type:       domain.ErrorNotWithinParent,
		FeatureIdx: featureIdx,
	}
	if surface := escaped.PointOnSurface(); surface != nil {
		err.Points = []domain.Point{{X: surface.X(), Y: surface.Y()}}
		surface.Destroy()
	}
	return []domain.CheckError{err}, false, nil
}
