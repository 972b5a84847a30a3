package geometry

import (
	"strconv"
	"strings"

	"github.com/georepo-validation/internal/domain"
)

// SelfIntersectionCheck delegates to the geometry engine's validity
// diagnostics. Only invalidity classified as a self-intersection is reported
// here; degenerate rings and duplicate vertices have their own checks. The
// approximate crossing point is taken from the engine's reason string, e.g.
// "Ring Self-intersection[102.5 3.25]".
func SelfIntersectionCheck(g *Geometry, featureIdx int) []domain.CheckError {
	if g.Geos().IsValid() {
		return nil
	}
	reason := g.Geos().IsValidReason()
	if !strings.Contains(reason, "Self-intersection") {
		return nil
	}

	err := domain.CheckError{
		Type:       domain.ErrorSelfIntersects,
		FeatureIdx: featureIdx,
	}
	if p, ok := parseReasonPoint(reason); ok {
		err.Points = []domain.Point{p}
	}
	return []domain.CheckError{err}
}

// ValidityCheck reports engine invalidity that is not a self-intersection,
// such as nested shells or disconnected interiors.
func ValidityCheck(g *Geometry, featureIdx int) []domain.CheckError {
	if g.Geos().IsValid() {
		return nil
	}
	reason := g.Geos().IsValidReason()
	if strings.Contains(reason, "Self-intersection") {
		return nil
	}

	err := domain.CheckError{
		Type:       domain.ErrorGeometryValidity,
		FeatureIdx: featureIdx,
	}
	if p, ok := parseReasonPoint(reason); ok {
		err.Points = []domain.Point{p}
	}
	return []domain.CheckError{err}
}

// parseReasonPoint extracts the "[x y]" location suffix GEOS appends to its
// validity reasons.
func parseReasonPoint(reason string) (domain.Point, bool) {
	open := strings.LastIndex(reason, "[")
	end := strings.LastIndex(reason, "]")
	if open < 0 || end <= open {
		return domain.Point{}, false
	}
	fields := strings.Fields(reason[open+1 : end])
	if len(fields) != 2 {
		return domain.Point{}, false
	}
	x, errX := strconv.ParseFloat(fields[0], 64)
	y, errY := strconv.ParseFloat(fields[1], 64)
	if errX != nil || errY != nil {
		return domain.Point{}, false
	}
	return domain.Point{X: x, Y: y}, true
}
