// Package helpers provides shared test fixtures.
package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/wareflow/wareflow-go/internal/infrastructure/database"
)

// NewTestDB opens a fresh in-memory SQLite database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}
