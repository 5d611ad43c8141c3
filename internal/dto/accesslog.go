package dto

import (
	"time"

	"github.com/fitpulse/gym-api/internal/models"
)

// AccessLogListResponse is the paginated listing contract consumed by the
// dashboard. TableNotInitialized distinguishes "no data yet" from "the
// event store has not been provisioned".
type AccessLogListResponse struct {
	Logs                []models.AccessLogEvent `json:"logs"`
	Pagination          models.Pagination       `json:"pagination"`
	TableNotInitialized bool                    `json:"tableNotInitialized,omitempty"`
}

// AnalyticsSummary is the full multi-dimensional report for one time window.
type AnalyticsSummary struct {
	Period              models.AnalyticsPeriod    `json:"period"`
	WindowStart         time.Time                 `json:"windowStart"`
	GeneratedAt         time.Time                 `json:"generatedAt"`
	TotalRequests       int64                     `json:"totalRequests"`
	StatusBreakdown     []models.StatusClassCount `json:"statusBreakdown"`
	CategoryBreakdown   []models.CategoryCount    `json:"categoryBreakdown"`
	SeverityBreakdown   []models.SeverityCount    `json:"severityBreakdown"`
	TopUsers            []models.TopUserStat      `json:"topUsers"`
	TopActions          []models.ActionCount      `json:"topActions"`
	HourlyTrend         []models.HourlyTrendPoint `json:"hourlyTrend"`
	ErrorRateTrend      []models.ErrorRatePoint   `json:"errorRateTrend"`
	RecentErrors        []models.AccessLogEvent   `json:"recentErrors"`
	HourOfDayProfile    []models.HourOfDayStat    `json:"hourOfDayProfile"`
	TopEndpoints        []models.EndpointStat     `json:"topEndpoints"`
	TableNotInitialized bool                      `json:"tableNotInitialized,omitempty"`
}

// UserActivityResponse returns one actor's own events.
type UserActivityResponse struct {
	Logs                []models.AccessLogEvent `json:"logs"`
	TableNotInitialized bool                    `json:"tableNotInitialized,omitempty"`
}

// CleanupResponse reports the outcome of a retention sweep.
type CleanupResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
