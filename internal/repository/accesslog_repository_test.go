package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/gym-api/internal/models"
	appErrors "github.com/fitpulse/gym-api/pkg/errors"
)

func newAccessLogRepoMock(t *testing.T) (*AccessLogRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewAccessLogRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func strptr(s string) *string { return &s }
func i64ptr(v int64) *int64   { return &v }

func TestAccessLogRepositoryInsert(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.AccessLogEvent{
		UserID:         i64ptr(7),
		UserName:       strptr("Jane Doe"),
		Action:         "LOGIN",
		ResourceType:   "AUTH",
		Method:         "POST",
		Endpoint:       "/api/v1/auth/login",
		StatusCode:     200,
		ResponseTimeMs: 12,
		ClientIP:       strptr("10.0.0.1"),
		UserAgent:      strptr("go-test/1.0"),
		Severity:       models.SeverityInfo,
		Category:       models.CategoryAuth,
	}
	require.NoError(t, repo.Insert(context.Background(), event))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessLogRepositoryInsertUndefinedTable(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_logs")).
		WillReturnError(&pq.Error{Code: pqUndefinedTable})

	err := repo.Insert(context.Background(), &models.AccessLogEvent{Action: "LOGIN"})
	assert.ErrorIs(t, err, appErrors.ErrLogStoreNotInitialized)
}

func TestAccessLogRepositoryList(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM access_logs")).
		WithArgs(string(models.CategoryAuth), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(101))

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "user_name", "action", "resource_type", "resource_id",
		"method", "endpoint", "status_code", "response_time_ms", "client_ip",
		"user_agent", "request_body", "response_message", "severity", "category", "created_at",
	}).AddRow(
		int64(1), int64(7), "Jane Doe", "LOGIN", "AUTH", nil,
		"POST", "/api/v1/auth/login", 200, int64(12), "10.0.0.1",
		"go-test/1.0", nil, nil, "INFO", "AUTH", now,
	)
	mock.ExpectQuery("SELECT id, user_id, user_name").
		WithArgs(string(models.CategoryAuth), int64(7)).
		WillReturnRows(rows)

	events, total, err := repo.List(context.Background(), models.AccessLogFilter{
		Page:     1,
		Limit:    50,
		Category: models.CategoryAuth,
		UserID:   i64ptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), total)
	require.Len(t, events, 1)
	assert.Equal(t, "LOGIN", events[0].Action)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, int64(7), *events[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessLogRepositoryListUndefinedTable(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM access_logs")).
		WillReturnError(&pq.Error{Code: pqUndefinedTable})

	_, _, err := repo.List(context.Background(), models.AccessLogFilter{Page: 1, Limit: 50})
	assert.ErrorIs(t, err, appErrors.ErrLogStoreNotInitialized)
}

func TestAccessLogRepositoryStatusClassBreakdown(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT(?s:.*)status_class").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"status_class", "count"}).
			AddRow("2xx", 70).
			AddRow("4xx", 20).
			AddRow("5xx", 10))

	rows, err := repo.StatusClassBreakdown(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2xx", rows[0].Class)
	assert.Equal(t, int64(70), rows[0].Count)
}

func TestAccessLogRepositoryErrorRateTrend(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	since := time.Now().Add(-24 * time.Hour)
	hour := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT date_trunc(?s:.*)error_rate").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"hour", "total", "errors", "error_rate"}).
			AddRow(hour, 10, 3, 30.00))

	rows, err := repo.ErrorRateTrend(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].Total)
	assert.Equal(t, int64(3), rows[0].Errors)
	assert.InDelta(t, 30.00, rows[0].ErrorRate, 0.001)
}

func TestAccessLogRepositoryTopUsers(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT user_id, MAX").
		WithArgs(since, 10).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_name", "count", "avg_response_ms"}).
			AddRow(int64(7), "Jane Doe", 42, 15.25))

	rows, err := repo.TopUsers(context.Background(), since, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].UserID)
	assert.Equal(t, int64(42), rows[0].Count)
	assert.InDelta(t, 15.25, rows[0].AvgResponseMs, 0.001)
}

func TestAccessLogRepositoryDeleteOlderThan(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	cutoff := time.Now().AddDate(0, 0, -90)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_logs WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1234))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessLogRepositoryDeleteOlderThanUndefinedTable(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_logs")).
		WillReturnError(&pq.Error{Code: pqUndefinedTable})

	_, err := repo.DeleteOlderThan(context.Background(), time.Now())
	assert.ErrorIs(t, err, appErrors.ErrLogStoreNotInitialized)
}

func TestAccessLogRepositoryEnsureSchema(t *testing.T) {
	repo, mock, cleanup := newAccessLogRepoMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS access_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
