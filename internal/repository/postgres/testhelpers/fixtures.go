package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFixtures loads SQL fixture files into the database
func LoadFixtures(db *sql.DB, fixturesPath string, files []string) error {
	for _, file := range files {
		path := filepath.Join(fixturesPath, file)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("load fixture %s: %w", file, err)
		}
	}

	return nil
}

// GetEntityIDByCode returns the internal ID for an entity given its code and revision
func GetEntityIDByCode(db *sql.DB, datasetID int64, code string, revision int) (int64, error) {
	var id int64
	err := db.QueryRowContext(context.Background(),
		"SELECT id FROM geographical_entity WHERE dataset_id = $1 AND internal_code = $2 AND revision_number = $3",
		datasetID, code, revision).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get entity ID by code %s: %w", code, err)
	}
	return id, nil
}

// GetUploadStatus returns the status string for an upload row
func GetUploadStatus(db *sql.DB, uploadID int64) (string, error) {
	var status string
	err := db.QueryRowContext(context.Background(),
		"SELECT status FROM entity_upload_status WHERE id = $1", uploadID).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("get upload status %d: %w", uploadID, err)
	}
	return status, nil
}

// CountComparisons returns the number of comparison rows for an upload
func CountComparisons(db *sql.DB, uploadID int64) (int, error) {
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM boundary_comparison WHERE entity_upload_id = $1", uploadID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comparisons for upload %d: %w", uploadID, err)
	}
	return count, nil
}
