package geometry

import (
	"sort"
	"strconv"

	"github.com/georepo-validation/internal/domain"
)

// DuplicateNodeCheck reports consecutive coincident vertices within each
// part and ring of one geometry. Adjacent pairs only; non-adjacent vertex
// coincidence belongs to SelfContactCheck.
func DuplicateNodeCheck(g *Geometry, featureIdx int, tolerance float64) []domain.CheckError {
	var errs []domain.CheckError
	for partIdx, part := range g.Parts() {
		for ringIdx, ring := range part {
			for i := 0; i+1 < len(ring); i++ {
				if ring[i].EqualsExact(ring[i+1], tolerance) {
					errs = append(errs, domain.CheckError{
						Type:       domain.ErrorDuplicateNodes,
						FeatureIdx: featureIdx,
						Part:       partIdx,
						Ring:       ringIdx,
						Vertex:     i,
						Points:     []domain.Point{ring[i].Point()},
					})
				}
			}
		}
	}
	return errs
}

// DuplicatePointCheck is the layer-level variant for point layers: each
// feature's points are compared against every earlier feature in the layer.
// The error attaches to the later feature and references the earlier one.
func DuplicatePointCheck(geoms map[int]*Geometry, tolerance float64) map[int][]domain.CheckError {
	idxs := make([]int, 0, len(geoms))
	for idx := range geoms {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	result := make(map[int][]domain.CheckError)
	for a, later := range idxs {
		laterPoints := pointVectors(geoms[later])
	pair:
		for _, earlier := range idxs[:a] {
			for _, lp := range laterPoints {
				for _, ep := range pointVectors(geoms[earlier]) {
					if lp.EqualsExact(ep, tolerance) {
						result[later] = append(result[later], domain.CheckError{
							Type:           domain.ErrorDuplicateNodes,
							FeatureIdx:     later,
							Points:         []domain.Point{lp.Point()},
							OtherFeatureID: strconv.Itoa(earlier),
						})
						break pair
					}
				}
			}
		}
	}
	return result
}

func pointVectors(g *Geometry) []Vector {
	var points []Vector
	for _, part := range g.Parts() {
		for _, ring := range part {
			points = append(points, ring...)
		}
	}
	return points
}
