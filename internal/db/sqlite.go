package db

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// NewSQLiteMemory opens a fresh in-memory database with the full schema
// migrated. Repo and service tests use it so they can exercise real SQL
// without a postgres instance. The named shared-cache DSN keeps every
// pooled connection pointed at the same database while isolating tests
// from each other.
func NewSQLiteMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := gdb.AutoMigrate(
		&types.Project{},
		&types.Deal{},
		&types.Document{},
		&types.Question{},
		&types.QuestionAnswerAudit{},
		&types.ExportJob{},
		&types.ProjectQAPair{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return gdb, nil
}
