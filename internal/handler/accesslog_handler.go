package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitpulse/gym-api/internal/dto"
	"github.com/fitpulse/gym-api/internal/models"
	appErrors "github.com/fitpulse/gym-api/pkg/errors"
	"github.com/fitpulse/gym-api/pkg/export"
	"github.com/fitpulse/gym-api/pkg/response"
)

type accessLogService interface {
	List(ctx context.Context, filter models.AccessLogFilter) (*dto.AccessLogListResponse, error)
	Analytics(ctx context.Context, period models.AnalyticsPeriod) (*dto.AnalyticsSummary, bool, error)
	UserActivity(ctx context.Context, userID int64, limit int) (*dto.UserActivityResponse, error)
	Cleanup(ctx context.Context, days int) (*dto.CleanupResponse, error)
	Provision(ctx context.Context) error
}

// AccessLogHandler exposes the access-log read API consumed by the dashboard.
type AccessLogHandler struct {
	service  accessLogService
	exporter *export.PDFExporter
}

// NewAccessLogHandler constructs the handler.
func NewAccessLogHandler(service accessLogService) *AccessLogHandler {
	return &AccessLogHandler{service: service, exporter: export.NewPDFExporter()}
}

// List returns a paginated, filterable event listing, newest-first.
func (h *AccessLogHandler) List(c *gin.Context) {
	filter := parseListFilter(c)

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Analytics returns the composed summary for the requested window.
func (h *AccessLogHandler) Analytics(c *gin.Context) {
	period := models.AnalyticsPeriod(c.DefaultQuery("period", string(models.DefaultPeriod)))

	summary, cacheHit, err := h.service.Analytics(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, map[string]interface{}{"cache_hit": cacheHit})
}

// Export renders the analytics summary as a downloadable PDF.
func (h *AccessLogHandler) Export(c *gin.Context) {
	period := models.AnalyticsPeriod(c.DefaultQuery("period", string(models.DefaultPeriod)))

	summary, _, err := h.service.Analytics(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}

	report := buildAnalyticsReport(summary)
	payload, err := h.exporter.Render(report)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	filename := fmt.Sprintf("access-log-analytics-%s.pdf", summary.Period)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// UserActivity returns one actor's own events.
func (h *AccessLogHandler) UserActivity(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, svcErr := h.service.UserActivity(c.Request.Context(), userID, limit)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Cleanup performs the retention sweep. Admin-only, enforced by middleware.
func (h *AccessLogHandler) Cleanup(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer"))
		return
	}

	result, svcErr := h.service.Cleanup(c.Request.Context(), days)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Provision creates the event store schema. Admin-only.
func (h *AccessLogHandler) Provision(c *gin.Context) {
	if err := h.service.Provision(c.Request.Context()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision access log store"))
		return
	}
	response.NoContent(c)
}

// parseListFilter never rejects: malformed values are dropped or coerced so
// the read path stays maximally available.
func parseListFilter(c *gin.Context) models.AccessLogFilter {
	filter := models.AccessLogFilter{
		Category: models.Category(c.Query("category")),
		Severity: models.Severity(c.Query("severity")),
		Action:   c.Query("action"),
		Search:   c.Query("search"),
	}

	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	if raw := c.Query("userId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	if raw := c.Query("startDate"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.StartDate = &parsed
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.EndDate = &parsed
		}
	}

	return filter
}

func buildAnalyticsReport(summary *dto.AnalyticsSummary) export.Report {
	statusRows := make([][]string, 0, len(summary.StatusBreakdown))
	for _, row := range summary.StatusBreakdown {
		statusRows = append(statusRows, []string{row.Class, strconv.FormatInt(row.Count, 10)})
	}

	categoryRows := make([][]string, 0, len(summary.CategoryBreakdown))
	for _, row := range summary.CategoryBreakdown {
		categoryRows = append(categoryRows, []string{string(row.Category), strconv.FormatInt(row.Count, 10)})
	}

	severityRows := make([][]string, 0, len(summary.SeverityBreakdown))
	for _, row := range summary.SeverityBreakdown {
		severityRows = append(severityRows, []string{string(row.Severity), strconv.FormatInt(row.Count, 10)})
	}

	actionRows := make([][]string, 0, len(summary.TopActions))
	for _, row := range summary.TopActions {
		actionRows = append(actionRows, []string{row.Action, strconv.FormatInt(row.Count, 10)})
	}

	endpointRows := make([][]string, 0, len(summary.TopEndpoints))
	for _, row := range summary.TopEndpoints {
		endpointRows = append(endpointRows, []string{
			row.Endpoint,
			row.Method,
			strconv.FormatInt(row.Count, 10),
			strconv.FormatFloat(row.AvgResponseMs, 'f', 2, 64),
		})
	}

	return export.Report{
		Title:    "Access Log Analytics",
		Subtitle: fmt.Sprintf("Window %s, %d requests, generated %s", summary.Period, summary.TotalRequests, summary.GeneratedAt.Format(time.RFC3339)),
		Sections: []export.Section{
			{Title: "Status Classes", Headers: []string{"Class", "Requests"}, Rows: statusRows},
			{Title: "Categories", Headers: []string{"Category", "Requests"}, Rows: categoryRows},
			{Title: "Severities", Headers: []string{"Severity", "Requests"}, Rows: severityRows},
			{Title: "Top Actions", Headers: []string{"Action", "Requests"}, Rows: actionRows},
			{Title: "Top Endpoints", Headers: []string{"Endpoint", "Method", "Requests", "Avg ms"}, Rows: endpointRows},
		},
	}
}
