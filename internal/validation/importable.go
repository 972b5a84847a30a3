package validation

import "github.com/georepo-validation/internal/domain"

// IsValidationResultImportable decides whether an upload's validation result
// can be imported by the given user, and whether anything is worth flagging.
//
// Classification per nonzero error type, bypassable checked first:
//   - bypassable: blocks ordinary users, flagged as warning
//   - allowable: never blocks, flagged as warning
//   - anything else: blocks ordinary users, no warning flag
//
// A superuser may always import; warnings stay visible so the override is
// auditable rather than silent. The two booleans are independent.
func IsValidationResultImportable(upload *domain.EntityUploadStatus, user *domain.User, profile Profile) (importable, warning bool) {
	bypassable := profile.Bypassable()
	allowable := profile.Allowable()

	blocked := false
	for _, summary := range upload.Summaries {
		for t, count := range summary.Counts {
			if count == 0 {
				continue
			}
			switch {
			case contains(bypassable, t):
				warning = true
				blocked = true
			case contains(allowable, t):
				warning = true
			default:
				blocked = true
			}
		}
	}

	importable = user.IsSuperuser || !blocked
	return importable, warning
}
