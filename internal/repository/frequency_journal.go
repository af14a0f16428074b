package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lucena-edu/frequencia-api/internal/models"
)

// FrequencyJournal persists frequency logs append-only. The natural key
// (student_id, date, time, kind) makes replays and duplicate hardware
// deliveries idempotent at the storage layer too.
type FrequencyJournal struct {
	db *sqlx.DB
}

// NewFrequencyJournal constructs the journal.
func NewFrequencyJournal(db *sqlx.DB) *FrequencyJournal {
	return &FrequencyJournal{db: db}
}

// EnsureSchema creates the journal table when it does not exist yet.
func (j *FrequencyJournal) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS frequency_logs (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	UNIQUE (student_id, date, time, kind)
)`
	if _, err := j.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// Append stores one frequency log. Conflicts on the natural key are ignored.
func (j *FrequencyJournal) Append(ctx context.Context, log models.FrequencyLog) error {
	query := `INSERT INTO frequency_logs (id, student_id, kind, date, time)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (student_id, date, time, kind) DO NOTHING`
	if _, err := j.db.ExecContext(ctx, query, log.ID, log.StudentID, log.Kind, log.Date, log.Time); err != nil {
		return fmt.Errorf("append frequency log: %w", err)
	}
	return nil
}

// LoadAll returns every journaled log in original append order.
func (j *FrequencyJournal) LoadAll(ctx context.Context) ([]models.FrequencyLog, error) {
	query := `SELECT id, student_id, kind, date, time
FROM frequency_logs
ORDER BY date ASC, time ASC, id ASC`
	var rows []models.FrequencyLog
	if err := j.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load frequency journal: %w", err)
	}
	return rows, nil
}

// CountByStudent reports how many logs the journal holds for a student.
func (j *FrequencyJournal) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := j.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM frequency_logs WHERE student_id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("count frequency logs: %w", err)
	}
	return total, nil
}
