package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fitpulse/gym-api/internal/models"
	appErrors "github.com/fitpulse/gym-api/pkg/errors"
)

// pqUndefinedTable is the PostgreSQL error code raised when a statement
// references a table that does not exist.
const pqUndefinedTable = "42P01"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS access_logs (
	id               BIGSERIAL PRIMARY KEY,
	user_id          BIGINT REFERENCES users(id) ON DELETE SET NULL,
	user_name        TEXT,
	action           TEXT NOT NULL,
	resource_type    TEXT NOT NULL,
	resource_id      BIGINT,
	method           TEXT NOT NULL,
	endpoint         TEXT NOT NULL,
	status_code      INT NOT NULL,
	response_time_ms BIGINT NOT NULL,
	client_ip        TEXT,
	user_agent       TEXT,
	request_body     TEXT,
	response_message TEXT,
	severity         TEXT NOT NULL,
	category         TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_access_logs_created_at ON access_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_access_logs_user_id ON access_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_access_logs_category ON access_logs (category);
CREATE INDEX IF NOT EXISTS idx_access_logs_severity ON access_logs (severity);
`

const eventColumns = `id, user_id, user_name, action, resource_type, resource_id, method, endpoint, status_code, response_time_ms, client_ip, user_agent, request_body, response_message, severity, category, created_at`

// AccessLogRepository is the event store: append-only writes from the log
// writer, read-optimised aggregate queries for the dashboard.
type AccessLogRepository struct {
	db *sqlx.DB
}

// NewAccessLogRepository instantiates the repository.
func NewAccessLogRepository(db *sqlx.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// EnsureSchema provisions the access_logs table and its indexes. Idempotent.
func (r *AccessLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("provision access_logs: %w", err)
	}
	return nil
}

// Insert appends one event. Events are immutable once written.
func (r *AccessLogRepository) Insert(ctx context.Context, event *models.AccessLogEvent) error {
	const query = `INSERT INTO access_logs
		(user_id, user_name, action, resource_type, resource_id, method, endpoint, status_code, response_time_ms, client_ip, user_agent, request_body, response_message, severity, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := r.db.ExecContext(ctx, query,
		event.UserID,
		event.UserName,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		event.Method,
		event.Endpoint,
		event.StatusCode,
		event.ResponseTimeMs,
		event.ClientIP,
		event.UserAgent,
		event.RequestBody,
		event.ResponseMessage,
		event.Severity,
		event.Category,
	); err != nil {
		return r.translate(err, "insert access log")
	}
	return nil
}

// List returns a page of events ordered newest-first plus the total count
// matching the filter.
func (r *AccessLogRepository) List(ctx context.Context, filter models.AccessLogFilter) ([]models.AccessLogEvent, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(user_name ILIKE $%d OR endpoint ILIKE $%d OR response_message ILIKE $%d)", n, n, n))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM access_logs"+where, args...); err != nil {
		return nil, 0, r.translate(err, "count access logs")
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("SELECT %s FROM access_logs%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		eventColumns, where, filter.Limit, offset)

	var events []models.AccessLogEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, r.translate(err, "list access logs")
	}

	return events, total, nil
}

// TotalRequests counts events within the window.
func (r *AccessLogRepository) TotalRequests(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM access_logs WHERE created_at >= $1", since); err != nil {
		return 0, r.translate(err, "count window")
	}
	return total, nil
}

// StatusClassBreakdown buckets event counts by status class.
func (r *AccessLogRepository) StatusClassBreakdown(ctx context.Context, since time.Time) ([]models.StatusClassCount, error) {
	const query = `SELECT
		CASE
			WHEN status_code BETWEEN 200 AND 299 THEN '2xx'
			WHEN status_code BETWEEN 300 AND 399 THEN '3xx'
			WHEN status_code BETWEEN 400 AND 499 THEN '4xx'
			WHEN status_code >= 500 THEN '5xx'
			ELSE 'other'
		END AS status_class,
		COUNT(*) AS count
		FROM access_logs
		WHERE created_at >= $1
		GROUP BY status_class
		ORDER BY count DESC`

	var rows []models.StatusClassCount
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, r.translate(err, "status class breakdown")
	}
	return rows, nil
}

// CategoryBreakdown counts events per category, descending.
func (r *AccessLogRepository) CategoryBreakdown(ctx context.Context, since time.Time) ([]models.CategoryCount, error) {
	const query = `SELECT category, COUNT(*) AS count
		FROM access_logs WHERE created_at >= $1
		GROUP BY category ORDER BY count DESC`

	var rows []models.CategoryCount
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, r.translate(err, "category breakdown")
	}
	return rows, nil
}

// SeverityBreakdown counts events per severity, descending.
func (r *AccessLogRepository) SeverityBreakdown(ctx context.Context, since time.Time) ([]models.SeverityCount, error) {
	const query = `SELECT severity, COUNT(*) AS count
		FROM access_logs WHERE created_at >= $1
		GROUP BY severity ORDER BY count DESC`

	var rows []models.SeverityCount
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, r.translate(err, "severity breakdown")
	}
	return rows, nil
}

// TopUsers ranks authenticated actors by request volume with their average
// response time. Anonymous events are excluded.
func (r *AccessLogRepository) TopUsers(ctx context.Context, since time.Time, limit int) ([]models.TopUserStat, error) {
	const query = `SELECT user_id, MAX(user_name) AS user_name, COUNT(*) AS count,
		ROUND(AVG(response_time_ms)::numeric, 2) AS avg_response_ms
		FROM access_logs
		WHERE created_at >= $1 AND user_id IS NOT NULL
		GROUP BY user_id
		ORDER BY count DESC
		LIMIT $2`

	var rows []models.TopUserStat
	if err := r.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, r.translate(err, "top users")
	}
	return rows, nil
}

// TopActions ranks actions by request volume.
func (r *AccessLogRepository) TopActions(ctx context.Context, since time.Time, limit int) ([]models.ActionCount, error) {
	const query = `SELECT action, COUNT(*) AS count
		FROM access_logs WHERE created_at >= $1
		GROUP BY action ORDER BY count DESC LIMIT $2`

	var rows []models.ActionCount
	if err := r.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, r.translate(err, "top actions")
	}
	return rows, nil
}

// HourlyTrend returns per-hour response time statistics, ascending by hour.
// Hours with no events produce no bucket, so averages never divide by zero.
func (r *AccessLogRepository) HourlyTrend(ctx context.Context, since time.Time) ([]models.HourlyTrendPoint, error) {
	const query = `SELECT date_trunc('hour', created_at) AS hour,
		COUNT(*) AS count,
		ROUND(AVG(response_time_ms)::numeric, 2) AS avg_response_ms,
		MIN(response_time_ms) AS min_response_ms,
		MAX(response_time_ms) AS max_response_ms
		FROM access_logs WHERE created_at >= $1
		GROUP BY hour ORDER BY hour ASC`

	var rows []models.HourlyTrendPoint
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, r.translate(err, "hourly trend")
	}
	return rows, nil
}

// ErrorRateTrend returns per-hour totals, error counts (status >= 400) and
// the error rate as a percentage rounded to two decimals.
func (r *AccessLogRepository) ErrorRateTrend(ctx context.Context, since time.Time) ([]models.ErrorRatePoint, error) {
	const query = `SELECT date_trunc('hour', created_at) AS hour,
		COUNT(*) AS total,
		SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END) AS errors,
		ROUND(100.0 * SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END) / COUNT(*), 2) AS error_rate
		FROM access_logs WHERE created_at >= $1
		GROUP BY hour ORDER BY hour ASC`

	var rows []models.ErrorRatePoint
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, r.translate(err, "error rate trend")
	}
	return rows, nil
}

// RecentErrors returns the most recent events with status >= 400.
func (r *AccessLogRepository) RecentErrors(ctx context.Context, since time.Time, limit int) ([]models.AccessLogEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM access_logs
		WHERE created_at >= $1 AND status_code >= 400
		ORDER BY created_at DESC, id DESC LIMIT $2`, eventColumns)

	var events []models.AccessLogEvent
	if err := r.db.SelectContext(ctx, &events, query, since, limit); err != nil {
		return nil, r.translate(err, "recent errors")
	}
	return events, nil
}

// HourOfDayProfile aggregates request counts by hour of day (0-23) across
// the whole window.
func (r *AccessLogRepository) HourOfDayProfile(ctx context.Context, since time.Time) ([]models.HourOfDayStat, error) {
	const query = `SELECT EXTRACT(HOUR FROM created_at)::int AS hour,
		COUNT(*) AS count,
		ROUND(AVG(response_time_ms)::numeric, 2) AS avg_response_ms
		FROM access_logs WHERE created_at >= $1
		GROUP BY hour ORDER BY hour ASC`

	var rows []models.HourOfDayStat
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, r.translate(err, "hour of day profile")
	}
	return rows, nil
}

// TopEndpoints ranks (endpoint, method) pairs by request volume.
func (r *AccessLogRepository) TopEndpoints(ctx context.Context, since time.Time, limit int) ([]models.EndpointStat, error) {
	const query = `SELECT endpoint, method, COUNT(*) AS count,
		ROUND(AVG(response_time_ms)::numeric, 2) AS avg_response_ms
		FROM access_logs WHERE created_at >= $1
		GROUP BY endpoint, method
		ORDER BY count DESC LIMIT $2`

	var rows []models.EndpointStat
	if err := r.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, r.translate(err, "top endpoints")
	}
	return rows, nil
}

// UserActivity returns one actor's own events, newest-first, capped at limit.
func (r *AccessLogRepository) UserActivity(ctx context.Context, userID int64, limit int) ([]models.AccessLogEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM access_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2`, eventColumns)

	var events []models.AccessLogEvent
	if err := r.db.SelectContext(ctx, &events, query, userID, limit); err != nil {
		return nil, r.translate(err, "user activity")
	}
	return events, nil
}

// DeleteOlderThan hard-deletes every event created before the cutoff and
// returns the number of deleted rows.
func (r *AccessLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM access_logs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, r.translate(err, "delete old access logs")
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// translate maps the undefined-table condition onto its sentinel so callers
// can distinguish "not provisioned yet" from a genuine store failure.
func (r *AccessLogRepository) translate(err error, op string) error {
	if isUndefinedTable(err) {
		return appErrors.ErrLogStoreNotInitialized
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}
