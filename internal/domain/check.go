package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ErrorType is one category in a validation profile's closed taxonomy.
// The sets of known types, and which of them are warnings or bypassable,
// belong to the profile (admin_boundaries vs boundary_lines), not here.
type ErrorType string

const (
	ErrorSelfIntersects       ErrorType = "Self Intersects"
	ErrorDuplicateNodes       ErrorType = "Duplicate Nodes"
	ErrorSelfContacts         ErrorType = "Self Contacts"
	ErrorDegeneratePolygon    ErrorType = "Degenerate Polygon"
	ErrorDuplicatedGeometries ErrorType = "Duplicated Geometries"
	ErrorNotWithinParent      ErrorType = "Not Within Parent"
	ErrorParentMissing        ErrorType = "Parent Missing"
	ErrorParentCodeMissing    ErrorType = "Parent Code Missing"
	ErrorDefaultNameMissing   ErrorType = "Default Name Missing"
	ErrorDefaultCodeMissing   ErrorType = "Default Code Missing"
	ErrorDuplicatedCodes      ErrorType = "Duplicated Codes"
	ErrorGaps                 ErrorType = "Gaps"
	ErrorOverlaps             ErrorType = "Overlaps"
	ErrorInvalidPrivacyLevel  ErrorType = "Invalid Privacy Level"
	ErrorPrivacyLevelMissing  ErrorType = "Privacy Level Missing"
	ErrorUpgradedPrivacyLevel ErrorType = "Upgraded Privacy Level"
	ErrorGeometryValidity     ErrorType = "Invalid Geometry"
)

// Point is a 2D coordinate in map units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CheckError identifies one failing feature and, where applicable, the
// geometry part/ring/vertex and offending points. Comparative checks set
// OtherFeatureID to the sibling involved.
type CheckError struct {
	Type           ErrorType `json:"type"`
	FeatureIdx     int       `json:"feature_idx"`
	Part           int       `json:"part"`
	Ring           int       `json:"ring"`
	Vertex         int       `json:"vertex"`
	Points         []Point   `json:"points,omitempty"`
	OtherFeatureID string    `json:"other_feature_id,omitempty"`
}

// LayerError is the fixed-shape per-feature report row: identifying columns
// followed by one cell per error type in the profile's taxonomy order. This
// is the row format of the downstream human-readable report, so the column
// set and order must match the profile exactly.
type LayerError struct {
	Level  int               `json:"level"`
	Code   string            `json:"code"`
	Name   string            `json:"name"`
	Counts map[ErrorType]int `json:"counts"`
	Order  []ErrorType       `json:"-"`
}

// Add records one occurrence of an error type on this row. Types outside the
// row's taxonomy are ignored.
func (e *LayerError) Add(t ErrorType) {
	if _, ok := e.Counts[t]; ok {
		e.Counts[t]++
	}
}

// LevelErrorReport aggregates error counts per (admin level, entity type).
type LevelErrorReport struct {
	Level      int               `json:"level"`
	EntityType string            `json:"entity_type"`
	Counts     map[ErrorType]int `json:"counts"`
}

// Total returns the sum of all error counts in the report.
func (r *LevelErrorReport) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	return total
}

// LevelErrorReports is stored as a JSONB column on EntityUploadStatus.
type LevelErrorReports []LevelErrorReport

// Value implements driver.Valuer for JSONB storage.
func (r LevelErrorReports) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage.
func (r *LevelErrorReports) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for LevelErrorReports: %T", src)
	}
	return json.Unmarshal(data, r)
}
