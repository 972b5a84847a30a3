package geometry

import (
	"sort"
	"strconv"

	"github.com/georepo-validation/internal/domain"
)

// OverlapCheck detects significant pairwise overlaps between sibling
// polygons of one level. An overlap counts when the shared interior area
// exceeds areaThreshold; the error attaches to the later feature and
// references the earlier one.
func OverlapCheck(geoms map[int]*Geometry, areaThreshold float64) []domain.CheckError {
	idxs := sortedPolygonIdxs(geoms)

	var errs []domain.CheckError
	for a, i := range idxs {
		for _, j := range idxs[a+1:] {
			gi, gj := geoms[i].Geos(), geoms[j].Geos()
			if !gi.Overlaps(gj) {
				continue
			}
			intersection := gi.Intersection(gj)
			if intersection == nil {
				continue
			}
			area := intersection.Area()
			var point *domain.Point
			if surface := intersection.PointOnSurface(); surface != nil {
				point = &domain.Point{X: surface.X(), Y: surface.Y()}
				surface.Destroy()
			}
			intersection.Destroy()
			if area <= areaThreshold {
				continue
			}
			err := domain.CheckError{
				Type:           domain.ErrorOverlaps,
				FeatureIdx:     j,
				OtherFeatureID: strconv.Itoa(i),
			}
			if point != nil {
				err.Points = []domain.Point{*point}
			}
			errs = append(errs, err)
		}
	}
	return errs
}

// GapCheck flags features whose boundary sits close to, but not touching,
// another sibling: the distance falls in (tolerance, 10*tolerance]. One gap
// is reported per feature.
func GapCheck(geoms map[int]*Geometry, tolerance float64) []domain.CheckError {
	idxs := sortedPolygonIdxs(geoms)

	var errs []domain.CheckError
	for _, i := range idxs {
		boundary := geoms[i].Geos().Boundary()
		if boundary == nil {
			continue
		}
		for _, j := range idxs {
			if i == j {
				continue
			}
			distance := boundary.Distance(geoms[j].Geos())
			if distance > tolerance && distance <= tolerance*10 {
				errs = append(errs, domain.CheckError{
					Type:           domain.ErrorGaps,
					FeatureIdx:     i,
					OtherFeatureID: strconv.Itoa(j),
				})
				break
			}
		}
		boundary.Destroy()
	}
	return errs
}

func sortedPolygonIdxs(geoms map[int]*Geometry) []int {
	idxs := make([]int, 0, len(geoms))
	for idx, g := range geoms {
		if g != nil && g.IsPolygonal() {
			idxs = append(idxs, idx)
		}
	}
	sort.Ints(idxs)
	return idxs
}
