package validation

import "github.com/georepo-validation/internal/domain"

// NewLayerError produces the fixed-shape per-feature report row: one cell
// per error type of the profile, in taxonomy order, all zero. The row is
// filled in as checks run over one feature and becomes a line of the
// downstream human-readable error report.
func NewLayerError(profile Profile, level int, code, name string) *domain.LayerError {
	order := profile.ErrorTypes()
	counts := make(map[domain.ErrorType]int, len(order))
	for _, t := range order {
		counts[t] = 0
	}
	return &domain.LayerError{
		Level:  level,
		Code:   code,
		Name:   name,
		Counts: counts,
		Order:  order,
	}
}

// NewLevelErrorReport produces the aggregate-count row for one (level,
// entity type) pair.
func NewLevelErrorReport(profile Profile, level int, entityType string) *domain.LevelErrorReport {
	counts := make(map[domain.ErrorType]int, len(profile.ErrorTypes()))
	for _, t := range profile.ErrorTypes() {
		counts[t] = 0
	}
	return &domain.LevelErrorReport{
		Level:      level,
		EntityType: entityType,
		Counts:     counts,
	}
}

// Aggregate folds per-feature rows into the level report.
func Aggregate(report *domain.LevelErrorReport, rows []*domain.LayerError) {
	for _, row := range rows {
		for t, c := range row.Counts {
			report.Counts[t] += c
		}
	}
}

// HasBlockingError reports whether any error type outside the profile's
// allowable set has a nonzero count in any summary. Such a summary flips the
// upload to ERROR.
func HasBlockingError(profile Profile, summaries domain.LevelErrorReports) bool {
	allowable := profile.Allowable()
	for _, summary := range summaries {
		for t, count := range summary.Counts {
			if count > 0 && !contains(allowable, t) {
				return true
			}
		}
	}
	return false
}
