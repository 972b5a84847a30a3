package geometry

import "github.com/georepo-validation/internal/domain"

// SelfContactCheck reports non-adjacent coincident vertices within a ring:
// vertex i touching vertex j with |i-j| > 1 modulo the ring length. Adjacent
// coincidence is DuplicateNodeCheck's job and edge crossings are
// SelfIntersectionCheck's; the three never overlap. Each coincident pair is
// reported once, anchored at the lower index.
func SelfContactCheck(g *Geometry, featureIdx int, tolerance float64) []domain.CheckError {
	var errs []domain.CheckError
	for partIdx, part := range g.Parts() {
		for ringIdx, ring := range part {
			closed := len(ring) > 1 && ring[0].EqualsExact(ring[len(ring)-1], 0)
			vertices := ring
			if closed {
				// Drop the duplicated closing vertex so index arithmetic is
				// over the real ring length.
				vertices = ring[:len(ring)-1]
			}
			n := len(vertices)
			for i := 0; i < n; i++ {
				for j := i + 2; j < n; j++ {
					if closed && i == 0 && j == n-1 {
						// First and last are ring neighbours.
						continue
					}
					if vertices[i].EqualsExact(vertices[j], tolerance) {
						errs = append(errs, domain.CheckError{
							Type:       domain.ErrorSelfContacts,
							FeatureIdx: featureIdx,
							Part:       partIdx,
							Ring:       ringIdx,
							Vertex:     i,
							Points:     []domain.Point{vertices[i].Point()},
						})
					}
				}
			}
		}
	}
	return errs
}
