package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georepo-validation/internal/domain"
)

func adminProfile(t *testing.T) Profile {
	t.Helper()
	p, err := ProfileByModule(ModuleAdminBoundaries)
	require.NoError(t, err)
	return p
}

func TestNewLayerError(t *testing.T) {
	p := adminProfile(t)
	row := NewLayerError(p, 1, "PAK_001", "Punjab")

	assert.Equal(t, 1, row.Level)
	assert.Equal(t, "PAK_001", row.Code)
	assert.Equal(t, "Punjab", row.Name)
	// Every taxonomy column exists and starts at zero.
	require.Len(t, row.Counts, len(p.ErrorTypes()))
	for _, errType := range p.ErrorTypes() {
		count, ok := row.Counts[errType]
		assert.True(t, ok)
		assert.Zero(t, count)
	}
	assert.Equal(t, p.ErrorTypes(), row.Order)
}

func TestLayerErrorAdd(t *testing.T) {
	p := adminProfile(t)
	row := NewLayerError(p, 0, "PAK", "Pakistan")

	row.Add(domain.ErrorSelfIntersects)
	row.Add(domain.ErrorSelfIntersects)
	row.Add(domain.ErrorOverlaps)
	assert.Equal(t, 2, row.Counts[domain.ErrorSelfIntersects])
	assert.Equal(t, 1, row.Counts[domain.ErrorOverlaps])

	// Types outside the taxonomy do not grow the row.
	row.Add(domain.ErrorType("Volcanic Activity"))
	assert.Len(t, row.Counts, len(p.ErrorTypes()))
}

func TestAggregate(t *testing.T) {
	p := adminProfile(t)

	rowA := NewLayerError(p, 1, "PAK_001", "Punjab")
	rowA.Add(domain.ErrorSelfIntersects)
	rowA.Add(domain.ErrorGaps)
	rowB := NewLayerError(p, 1, "PAK_002", "Sindh")
	rowB.Add(domain.ErrorSelfIntersects)

	report := NewLevelErrorReport(p, 1, "District")
	Aggregate(report, []*domain.LayerError{rowA, rowB})

	assert.Equal(t, 2, report.Counts[domain.ErrorSelfIntersects])
	assert.Equal(t, 1, report.Counts[domain.ErrorGaps])
	assert.Equal(t, 3, report.Total())
	assert.Equal(t, "District", report.EntityType)
}

func TestHasBlockingError(t *testing.T) {
	p := adminProfile(t)

	tests := []struct {
		name     string
		counts   map[domain.ErrorType]int
		blocking bool
	}{
		{"clean", map[domain.ErrorType]int{}, false},
		{"allowable only", map[domain.ErrorType]int{domain.ErrorSelfIntersects: 3, domain.ErrorGaps: 1}, false},
		{"hard error", map[domain.ErrorType]int{domain.ErrorOverlaps: 1}, true},
		{"bypassable blocks", map[domain.ErrorType]int{domain.ErrorUpgradedPrivacyLevel: 1}, true},
		{"mixed", map[domain.ErrorType]int{domain.ErrorSelfIntersects: 2, domain.ErrorNotWithinParent: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries := domain.LevelErrorReports{
				{Level: 0, EntityType: "Country", Counts: tt.counts},
			}
			assert.Equal(t, tt.blocking, HasBlockingError(p, summaries))
		})
	}
}
