package models

import "time"

// Severity grades an access log event from its response status code.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Category is the coarse business-domain grouping assigned to every event.
type Category string

const (
	CategoryAuth       Category = "AUTH"
	CategoryUser       Category = "USER"
	CategorySession    Category = "SESSION"
	CategoryPayment    Category = "PAYMENT"
	CategoryAttendance Category = "ATTENDANCE"
	CategoryAdmin      Category = "ADMIN"
	CategorySystem     Category = "SYSTEM"
)

// ResourceTypeUnknown is the fallback resource type when no classification rule matches.
const ResourceTypeUnknown = "UNKNOWN"

// AccessLogEvent is one immutable record describing a single completed HTTP request.
type AccessLogEvent struct {
	ID              int64     `db:"id" json:"id"`
	UserID          *int64    `db:"user_id" json:"userId,omitempty"`
	UserName        *string   `db:"user_name" json:"userName,omitempty"`
	Action          string    `db:"action" json:"action"`
	ResourceType    string    `db:"resource_type" json:"resourceType"`
	ResourceID      *int64    `db:"resource_id" json:"resourceId,omitempty"`
	Method          string    `db:"method" json:"method"`
	Endpoint        string    `db:"endpoint" json:"endpoint"`
	StatusCode      int       `db:"status_code" json:"statusCode"`
	ResponseTimeMs  int64     `db:"response_time_ms" json:"responseTimeMs"`
	ClientIP        *string   `db:"client_ip" json:"clientIp,omitempty"`
	UserAgent       *string   `db:"user_agent" json:"userAgent,omitempty"`
	RequestBody     *string   `db:"request_body" json:"requestBody,omitempty"`
	ResponseMessage *string   `db:"response_message" json:"responseMessage,omitempty"`
	Severity        Severity  `db:"severity" json:"severity"`
	Category        Category  `db:"category" json:"category"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// AccessLogEntry is the raw capture handed from the request interceptor to
// the log writer. Request and response payloads are carried unprocessed;
// redaction and message extraction happen in the writer, off the request path.
type AccessLogEntry struct {
	UserID         *int64
	UserName       *string
	Action         string
	ResourceType   string
	ResourceID     *int64
	Method         string
	Endpoint       string
	StatusCode     int
	ResponseTimeMs int64
	ClientIP       string
	UserAgent      string
	Severity       Severity
	Category       Category
	RequestBody    []byte
	ResponseBody   []byte
}

// AccessLogFilter captures listing criteria for the access log read API.
type AccessLogFilter struct {
	Page      int
	Limit     int
	Category  Category
	Severity  Severity
	Action    string
	UserID    *int64
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// AnalyticsPeriod is a named time window accepted by the analytics endpoints.
type AnalyticsPeriod string

const (
	PeriodHour        AnalyticsPeriod = "1h"
	PeriodDay         AnalyticsPeriod = "24h"
	PeriodWeek        AnalyticsPeriod = "7d"
	PeriodMonth       AnalyticsPeriod = "30d"
	DefaultPeriod                     = PeriodDay
)

// Duration resolves the named window into a concrete duration.
// Unrecognised values coerce to the default window.
func (p AnalyticsPeriod) Duration() time.Duration {
	switch p {
	case PeriodHour:
		return time.Hour
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Normalize coerces unknown period names to the default window.
func (p AnalyticsPeriod) Normalize() AnalyticsPeriod {
	switch p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return p
	default:
		return DefaultPeriod
	}
}

// StatusClassCount buckets request counts by status class (2xx/3xx/4xx/5xx/other).
type StatusClassCount struct {
	Class string `db:"status_class" json:"class"`
	Count int64  `db:"count" json:"count"`
}

// CategoryCount is a per-category request count.
type CategoryCount struct {
	Category Category `db:"category" json:"category"`
	Count    int64    `db:"count" json:"count"`
}

// SeverityCount is a per-severity request count.
type SeverityCount struct {
	Severity Severity `db:"severity" json:"severity"`
	Count    int64    `db:"count" json:"count"`
}

// TopUserStat ranks an actor by request volume within a window.
type TopUserStat struct {
	UserID         int64   `db:"user_id" json:"userId"`
	UserName       *string `db:"user_name" json:"userName,omitempty"`
	Count          int64   `db:"count" json:"count"`
	AvgResponseMs  float64 `db:"avg_response_ms" json:"avgResponseMs"`
}

// ActionCount is a per-action request count.
type ActionCount struct {
	Action string `db:"action" json:"action"`
	Count  int64  `db:"count" json:"count"`
}

// HourlyTrendPoint is one hour bucket of response-time statistics.
type HourlyTrendPoint struct {
	Hour          time.Time `db:"hour" json:"hour"`
	Count         int64     `db:"count" json:"count"`
	AvgResponseMs float64   `db:"avg_response_ms" json:"avgResponseMs"`
	MinResponseMs float64   `db:"min_response_ms" json:"minResponseMs"`
	MaxResponseMs float64   `db:"max_response_ms" json:"maxResponseMs"`
}

// ErrorRatePoint is one hour bucket of the error-rate trend.
// ErrorRate is a percentage rounded to two decimals.
type ErrorRatePoint struct {
	Hour      time.Time `db:"hour" json:"hour"`
	Total     int64     `db:"total" json:"total"`
	Errors    int64     `db:"errors" json:"errors"`
	ErrorRate float64   `db:"error_rate" json:"errorRate"`
}

// HourOfDayStat aggregates request volume by hour of day (0-23) across the window.
type HourOfDayStat struct {
	Hour          int     `db:"hour" json:"hour"`
	Count         int64   `db:"count" json:"count"`
	AvgResponseMs float64 `db:"avg_response_ms" json:"avgResponseMs"`
}

// EndpointStat ranks an (endpoint, method) pair by request volume.
type EndpointStat struct {
	Endpoint      string  `db:"endpoint" json:"endpoint"`
	Method        string  `db:"method" json:"method"`
	Count         int64   `db:"count" json:"count"`
	AvgResponseMs float64 `db:"avg_response_ms" json:"avgResponseMs"`
}

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}
