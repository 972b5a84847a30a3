package geometry

import (
	"github.com/twpayne/go-geos"

	"github.com/georepo-validation/internal/domain"
)

// SiblingGeometry is an already-persisted geometry of the same dataset,
// level and layer file, identified by its entity code.
type SiblingGeometry struct {
	ID   string
	Geom *geos.Geom
}

// DuplicateGeometryCheck compares a candidate geometry against persisted
// siblings. Equality is tolerance-based: exact vertex equality within
// tolerance, or a symmetric difference area below the same epsilon. The
// first match wins; at most one duplicate is reported per feature. A fully
// degenerate comparison (empty candidate) comes back on the second channel
// as a hard geometry error; callers must check both.
func DuplicateGeometryCheck(g *Geometry, featureIdx int, others []SiblingGeometry, tolerance float64) (*domain.CheckError, *domain.CheckError) {
	if g.Geos().IsEmpty() {
		return nil, &domain.CheckError{
			Type:       domain.ErrorGeometryValidity,
			FeatureIdx: featureIdx,
		}
	}

	for _, other := range others {
		if other.Geom == nil || other.Geom.IsEmpty() {
			continue
		}
		if geometriesEqual(g.Geos(), other.Geom, tolerance) {
			return &domain.CheckError{
				Type:           domain.ErrorDuplicatedGeometries,
				FeatureIdx:     featureIdx,
				OtherFeatureID: other.ID,
			}, nil
		}
	}
	return nil, nil
}

func geometriesEqual(a, b *geos.Geom, tolerance float64) bool {
	if a.EqualsExact(b, tolerance) {
		return true
	}
	diff := a.SymDifference(b)
	if diff == nil {
		return false
	}
	defer diff.Destroy()
	return diff.Area() <= tolerance
}
