package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitpulse/gym-api/internal/dto"
	"github.com/fitpulse/gym-api/internal/models"
	appErrors "github.com/fitpulse/gym-api/pkg/errors"
	"github.com/fitpulse/gym-api/pkg/jobs"
)

const (
	defaultPageSize  = 50
	maxPageSize      = 200
	maxActivityLimit = 500

	topUsersLimit     = 10
	topActionsLimit   = 10
	recentErrorsLimit = 20
	topEndpointsLimit = 15

	redactedPlaceholder = "[REDACTED]"
	writeJobType        = "access_log_write"
	analyticsCachePref  = "accesslog:analytics:"
)

type accessLogRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, event *models.AccessLogEvent) error
	List(ctx context.Context, filter models.AccessLogFilter) ([]models.AccessLogEvent, int64, error)
	TotalRequests(ctx context.Context, since time.Time) (int64, error)
	StatusClassBreakdown(ctx context.Context, since time.Time) ([]models.StatusClassCount, error)
	CategoryBreakdown(ctx context.Context, since time.Time) ([]models.CategoryCount, error)
	SeverityBreakdown(ctx context.Context, since time.Time) ([]models.SeverityCount, error)
	TopUsers(ctx context.Context, since time.Time, limit int) ([]models.TopUserStat, error)
	TopActions(ctx context.Context, since time.Time, limit int) ([]models.ActionCount, error)
	HourlyTrend(ctx context.Context, since time.Time) ([]models.HourlyTrendPoint, error)
	ErrorRateTrend(ctx context.Context, since time.Time) ([]models.ErrorRatePoint, error)
	RecentErrors(ctx context.Context, since time.Time, limit int) ([]models.AccessLogEvent, error)
	HourOfDayProfile(ctx context.Context, since time.Time) ([]models.HourOfDayStat, error)
	TopEndpoints(ctx context.Context, since time.Time, limit int) ([]models.EndpointStat, error)
	UserActivity(ctx context.Context, userID int64, limit int) ([]models.AccessLogEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// WriterConfig tunes the detached background write queue.
type WriterConfig struct {
	Workers int
	Buffer  int
}

// AccessLogService owns both sides of the event store: the fire-and-forget
// writer fed by the request interceptor, and the aggregation read API
// consumed by the dashboard.
type AccessLogService struct {
	repo     accessLogRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	queue    *jobs.Queue
	cacheTTL time.Duration
}

// NewAccessLogService constructs the service and its write queue. Call
// Start before serving traffic and Stop during shutdown to drain workers.
func NewAccessLogService(repo accessLogRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, writer WriterConfig, cacheTTL time.Duration) *AccessLogService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AccessLogService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cacheTTL: cacheTTL,
	}

	// MaxRetries 0: persistence is at-most-once by contract. A failed
	// insert is reported to the diagnostic channel and discarded.
	s.queue = jobs.NewQueue("access_log_writer", s.handleWriteJob, jobs.QueueConfig{
		Workers:    writer.Workers,
		BufferSize: writer.Buffer,
		MaxRetries: 0,
		Logger:     logger,
	})

	return s
}

// Start launches the background write workers.
func (s *AccessLogService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the write workers.
func (s *AccessLogService) Stop() {
	s.queue.Stop()
}

// QueueDepth reports pending write jobs, exposed as a gauge.
func (s *AccessLogService) QueueDepth() int {
	return s.queue.Depth()
}

// Record accepts a raw capture from the interceptor and schedules its
// persistence. It never blocks and never returns an error: when the queue
// is full the event is dropped and the drop counted.
func (s *AccessLogService) Record(entry models.AccessLogEntry) {
	event := s.buildEvent(entry)

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    writeJobType,
		Payload: event,
	}
	if !s.queue.TryEnqueue(job) {
		s.metrics.RecordLogDrop()
	}
}

// Provision creates the event store schema.
func (s *AccessLogService) Provision(ctx context.Context) error {
	return s.repo.EnsureSchema(ctx)
}

// List returns a page of events. Invalid paging inputs are coerced to sane
// defaults; an unprovisioned store yields an empty page with a flag.
func (s *AccessLogService) List(ctx context.Context, filter models.AccessLogFilter) (*dto.AccessLogListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		if errors.Is(err, appErrors.ErrLogStoreNotInitialized) {
			return &dto.AccessLogListResponse{
				Logs:                []models.AccessLogEvent{},
				Pagination:          models.Pagination{Page: filter.Page, Limit: filter.Limit},
				TableNotInitialized: true,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list access logs")
	}

	if events == nil {
		events = []models.AccessLogEvent{}
	}

	return &dto.AccessLogListResponse{
		Logs: events,
		Pagination: models.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages(total, filter.Limit),
		},
	}, nil
}

// Analytics composes the full summary for the named window. The composed
// result is cached per period. The bool result reports a cache hit.
func (s *AccessLogService) Analytics(ctx context.Context, period models.AnalyticsPeriod) (*dto.AnalyticsSummary, bool, error) {
	period = period.Normalize()

	cacheKey := analyticsCachePref + string(period)
	cached := &dto.AnalyticsSummary{}
	if hit, _ := s.cache.Get(ctx, cacheKey, cached); hit {
		return cached, true, nil
	}

	now := time.Now().UTC()
	since := now.Add(-period.Duration())

	summary := &dto.AnalyticsSummary{
		Period:      period,
		WindowStart: since,
		GeneratedAt: now,
	}

	total, err := s.repo.TotalRequests(ctx, since)
	if err != nil {
		if errors.Is(err, appErrors.ErrLogStoreNotInitialized) {
			summary.TableNotInitialized = true
			return summary, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute analytics")
	}
	summary.TotalRequests = total

	steps := []func() error{
		func() (err error) { summary.StatusBreakdown, err = s.repo.StatusClassBreakdown(ctx, since); return },
		func() (err error) { summary.CategoryBreakdown, err = s.repo.CategoryBreakdown(ctx, since); return },
		func() (err error) { summary.SeverityBreakdown, err = s.repo.SeverityBreakdown(ctx, since); return },
		func() (err error) { summary.TopUsers, err = s.repo.TopUsers(ctx, since, topUsersLimit); return },
		func() (err error) { summary.TopActions, err = s.repo.TopActions(ctx, since, topActionsLimit); return },
		func() (err error) { summary.HourlyTrend, err = s.repo.HourlyTrend(ctx, since); return },
		func() (err error) { summary.ErrorRateTrend, err = s.repo.ErrorRateTrend(ctx, since); return },
		func() (err error) { summary.RecentErrors, err = s.repo.RecentErrors(ctx, since, recentErrorsLimit); return },
		func() (err error) { summary.HourOfDayProfile, err = s.repo.HourOfDayProfile(ctx, since); return },
		func() (err error) { summary.TopEndpoints, err = s.repo.TopEndpoints(ctx, since, topEndpointsLimit); return },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute analytics")
		}
	}

	if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache analytics summary", zap.String("period", string(period)), zap.Error(err))
	}

	return summary, false, nil
}

// UserActivity returns one actor's events, newest-first, capped at limit.
func (s *AccessLogService) UserActivity(ctx context.Context, userID int64, limit int) (*dto.UserActivityResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	events, err := s.repo.UserActivity(ctx, userID, limit)
	if err != nil {
		if errors.Is(err, appErrors.ErrLogStoreNotInitialized) {
			return &dto.UserActivityResponse{Logs: []models.AccessLogEvent{}, TableNotInitialized: true}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user activity")
	}
	if events == nil {
		events = []models.AccessLogEvent{}
	}
	return &dto.UserActivityResponse{Logs: events}, nil
}

// Cleanup hard-deletes events older than the given number of days and
// reports how many rows were removed.
func (s *AccessLogService) Cleanup(ctx context.Context, days int) (*dto.CleanupResponse, error) {
	if days < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		if errors.Is(err, appErrors.ErrLogStoreNotInitialized) {
			return &dto.CleanupResponse{DeletedCount: 0}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean up access logs")
	}

	if err := s.cache.Invalidate(ctx, analyticsCachePref+"*"); err != nil {
		s.logger.Warn("failed to invalidate analytics cache", zap.Error(err))
	}

	return &dto.CleanupResponse{DeletedCount: deleted}, nil
}

func (s *AccessLogService) handleWriteJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(*models.AccessLogEvent)
	if !ok {
		s.logger.Error("unexpected write job payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		// Best-effort contract: record the failure on the side channel
		// and discard the event.
		s.metrics.RecordLogWrite(false)
		s.logger.Error("access log write failed",
			zap.String("endpoint", event.Endpoint),
			zap.String("action", event.Action),
			zap.Error(err))
		return nil
	}

	s.metrics.RecordLogWrite(true)
	return nil
}

func (s *AccessLogService) buildEvent(entry models.AccessLogEntry) *models.AccessLogEvent {
	event := &models.AccessLogEvent{
		UserID:          entry.UserID,
		UserName:        entry.UserName,
		Action:          entry.Action,
		ResourceType:    entry.ResourceType,
		ResourceID:      entry.ResourceID,
		Method:          entry.Method,
		Endpoint:        entry.Endpoint,
		StatusCode:      entry.StatusCode,
		ResponseTimeMs:  entry.ResponseTimeMs,
		Severity:        entry.Severity,
		Category:        entry.Category,
		RequestBody:     redactBody(entry.RequestBody),
		ResponseMessage: extractMessage(entry.ResponseBody),
	}
	if entry.ClientIP != "" {
		ip := entry.ClientIP
		event.ClientIP = &ip
	}
	if entry.UserAgent != "" {
		ua := entry.UserAgent
		event.UserAgent = &ua
	}
	return event
}

// redactBody serialises the request payload with every password field
// replaced. Non-JSON payloads are omitted entirely rather than risking a
// credential leak.
func redactBody(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	redactPasswords(payload)

	serialized, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	snapshot := string(serialized)
	return &snapshot
}

func redactPasswords(payload map[string]interface{}) {
	for key, value := range payload {
		if key == "password" {
			payload[key] = redactedPlaceholder
			continue
		}
		if nested, ok := value.(map[string]interface{}); ok {
			redactPasswords(nested)
		}
	}
}

// extractMessage pulls a short text out of a structured response payload.
// Parse failures are not errors; the message is simply absent.
func extractMessage(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	for _, key := range []string{"message", "error"} {
		if value, ok := payload[key]; ok {
			switch v := value.(type) {
			case string:
				return &v
			case map[string]interface{}:
				if msg, ok := v["message"].(string); ok {
					return &msg
				}
			default:
				text := fmt.Sprintf("%v", v)
				return &text
			}
		}
	}

	return nil
}

func totalPages(total int64, limit int) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
