package validation

import (
	"fmt"

	"github.com/georepo-validation/internal/domain"
)

// Profile is a dataset module's closed error taxonomy plus its policy
// subsets. admin_boundaries and boundary_lines carry distinct taxonomies;
// profiles are passed into the pipeline explicitly so several modules can
// run in one process without cross-contamination.
type Profile interface {
	// Name is the module identifier the profile is registered under.
	Name() string

	// ErrorTypes is the full taxonomy in report column order.
	ErrorTypes() []domain.ErrorType

	// Allowable error types are warnings: they never block an import.
	Allowable() []domain.ErrorType

	// Bypassable error types block ordinary users but flag a warning the
	// superuser sees when overriding.
	Bypassable() []domain.ErrorType
}

const (
	ModuleAdminBoundaries = "admin_boundaries"
	ModuleBoundaryLines   = "boundary_lines"
)

// ProfileByModule selects the validation profile for a dataset module.
func ProfileByModule(module string) (Profile, error) {
	switch module {
	case ModuleAdminBoundaries:
		return adminBoundariesProfile{}, nil
	case ModuleBoundaryLines:
		return boundaryLinesProfile{}, nil
	default:
		return nil, fmt.Errorf("unknown dataset module %q", module)
	}
}

type adminBoundariesProfile struct{}

func (adminBoundariesProfile) Name() string { return ModuleAdminBoundaries }

func (adminBoundariesProfile) ErrorTypes() []domain.ErrorType {
	return []domain.ErrorType{
		domain.ErrorSelfIntersects,
		domain.ErrorDuplicateNodes,
		domain.ErrorSelfContacts,
		domain.ErrorDegeneratePolygon,
		domain.ErrorGeometryValidity,
		domain.ErrorDuplicatedGeometries,
		domain.ErrorNotWithinParent,
		domain.ErrorParentMissing,
		domain.ErrorParentCodeMissing,
		domain.ErrorDefaultNameMissing,
		domain.ErrorDefaultCodeMissing,
		domain.ErrorDuplicatedCodes,
		domain.ErrorGaps,
		domain.ErrorOverlaps,
		domain.ErrorInvalidPrivacyLevel,
		domain.ErrorPrivacyLevelMissing,
		domain.ErrorUpgradedPrivacyLevel,
	}
}

func (adminBoundariesProfile) Allowable() []domain.ErrorType {
	return []domain.ErrorType{
		domain.ErrorSelfIntersects,
		domain.ErrorSelfContacts,
		domain.ErrorDuplicateNodes,
		domain.ErrorGaps,
	}
}

func (adminBoundariesProfile) Bypassable() []domain.ErrorType {
	return []domain.ErrorType{
		domain.ErrorUpgradedPrivacyLevel,
	}
}

type boundaryLinesProfile struct{}

func (boundaryLinesProfile) Name() string { return ModuleBoundaryLines }

func (boundaryLinesProfile) ErrorTypes() []domain.ErrorType {
	return []domain.ErrorType{
		domain.ErrorSelfIntersects,
		domain.ErrorDuplicateNodes,
		domain.ErrorSelfContacts,
		domain.ErrorGeometryValidity,
		domain.ErrorDuplicatedGeometries,
		domain.ErrorDefaultNameMissing,
		domain.ErrorDefaultCodeMissing,
		domain.ErrorDuplicatedCodes,
	}
}

func (boundaryLinesProfile) Allowable() []domain.ErrorType {
	return []domain.ErrorType{
		domain.ErrorSelfIntersects,
		domain.ErrorSelfContacts,
		domain.ErrorDuplicateNodes,
	}
}

func (boundaryLinesProfile) Bypassable() []domain.ErrorType {
	return nil
}

// contains reports membership in a taxonomy subset. Bypassable membership
// must be checked before Allowable by callers that classify.
func contains(set []domain.ErrorType, t domain.ErrorType) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}
