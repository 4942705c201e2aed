package database

import (
	"fmt"

	"interview-scheduler/models"

	"gorm.io/gorm"
)

// UniqueInterviewIndex backs the one-interview-per-candidate-per-timestamp rule.
const UniqueInterviewIndex = "uq_candidate_interview_date"

// AutoMigrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags, FK interviews.candidate_id ON DELETE CASCADE)
// - Unique (candidate_id, interview_date) index; partial on non-cancelled rows for Postgres and SQLite
// - Composite status/date index used by the summary and slot queries
func AutoMigrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Candidate{},
			&models.Interview{},
			&models.Draft{},
			&models.IdempotencyKey{},
			&models.PendingConfirmation{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		m := tx.Migrator()
		if !m.HasIndex(&models.Interview{}, UniqueInterviewIndex) {
			stmt := `CREATE UNIQUE INDEX ` + UniqueInterviewIndex + ` ON interviews (candidate_id, interview_date)`
			if name := tx.Dialector.Name(); name == "postgres" || name == "sqlite" {
				// MySQL has no partial indexes and keeps the unconditional constraint.
				stmt += ` WHERE status <> 'cancelled'`
			}
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}
		if !m.HasIndex(&models.Interview{}, "idx_interviews_status_date") {
			stmt := `CREATE INDEX idx_interviews_status_date ON interviews (status, interview_date)`
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}
		return nil
	})
}
