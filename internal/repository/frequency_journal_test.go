package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/lucena-edu/frequencia-api/internal/models"
)

func newJournalMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFrequencyJournalAppend(t *testing.T) {
	db, mock, cleanup := newJournalMock(t)
	defer cleanup()

	journal := NewFrequencyJournal(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO frequency_logs")).
		WithArgs("log1", "s1", "entrada", "2026-02-20", "07:12").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := journal.Append(context.Background(), models.FrequencyLog{
		ID:        "log1",
		StudentID: "s1",
		Kind:      models.FrequencyEntrada,
		Date:      "2026-02-20",
		Time:      "07:12",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyJournalAppendDuplicateIsSilent(t *testing.T) {
	db, mock, cleanup := newJournalMock(t)
	defer cleanup()

	journal := NewFrequencyJournal(db)
	// ON CONFLICT DO NOTHING reports zero affected rows, never an error.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO frequency_logs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := journal.Append(context.Background(), models.FrequencyLog{
		ID:        "log2",
		StudentID: "s1",
		Kind:      models.FrequencyEntrada,
		Date:      "2026-02-20",
		Time:      "07:12",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyJournalLoadAll(t *testing.T) {
	db, mock, cleanup := newJournalMock(t)
	defer cleanup()

	journal := NewFrequencyJournal(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "kind", "date", "time"}).
		AddRow("log1", "s1", "entrada", "2026-02-19", "07:05").
		AddRow("log2", "s1", "saida", "2026-02-19", "12:00")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, kind, date, time")).
		WillReturnRows(rows)

	logs, err := journal.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, models.FrequencyEntrada, logs[0].Kind)
	require.Equal(t, "12:00", logs[1].Time)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyJournalCountByStudent(t *testing.T) {
	db, mock, cleanup := newJournalMock(t)
	defer cleanup()

	journal := NewFrequencyJournal(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM frequency_logs")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := journal.CountByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
