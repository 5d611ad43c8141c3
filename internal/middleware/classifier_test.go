package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/gym-api/internal/models"
)

func TestClassifyKnownRoutes(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		action       string
		resourceType string
		category     models.Category
		resourceID   *int64
	}{
		{"login", "POST", "/api/v1/auth/login", "LOGIN", "AUTH", models.CategoryAuth, nil},
		{"register", "POST", "/api/v1/auth/register", "REGISTER", "AUTH", models.CategoryAuth, nil},
		{"logout", "POST", "/api/v1/auth/logout", "LOGOUT", "AUTH", models.CategoryAuth, nil},
		{"view user", "GET", "/users/42", "VIEW_USER", "USER", models.CategoryUser, id(42)},
		{"create user", "POST", "/users", "CREATE_USER", "USER", models.CategoryUser, nil},
		{"update user", "PUT", "/users/7", "UPDATE_USER", "USER", models.CategoryUser, id(7)},
		{"delete user", "DELETE", "/users/7", "DELETE_USER", "USER", models.CategoryUser, id(7)},
		{"bulk delete", "POST", "/admin/bulk-delete", "BULK_DELETE_USERS", "USER", models.CategoryAdmin, nil},
		{"bulk update", "POST", "/admin/bulk-update", "BULK_UPDATE_USERS", "USER", models.CategoryAdmin, nil},
		{"send email", "POST", "/admin/send-email", "SEND_EMAIL", "EMAIL", models.CategoryAdmin, nil},
		{"import csv", "POST", "/admin/import-csv", "IMPORT_CSV", "USER", models.CategoryAdmin, nil},
		{"dashboard analytics", "GET", "/admin/dashboard-analytics", "VIEW_DASHBOARD_ANALYTICS", "ANALYTICS", models.CategoryAdmin, nil},
		{"advanced analytics", "GET", "/admin/advanced-analytics", "VIEW_ADVANCED_ANALYTICS", "ANALYTICS", models.CategoryAdmin, nil},
		{"admin load", "GET", "/admin/load", "LOAD_DASHBOARD", "DASHBOARD", models.CategoryAdmin, nil},
		{"generic admin", "GET", "/admin/settings", "VIEW_ADMIN_DATA", "ADMIN", models.CategoryAdmin, nil},
		{"view session", "GET", "/sessions/9", "VIEW_SESSION", "SESSION", models.CategorySession, id(9)},
		{"check in", "POST", "/attendance/check-in", "CHECK_IN", "ATTENDANCE", models.CategoryAttendance, nil},
		{"check in via get", "GET", "/attendance/check-in", "CHECK_IN", "ATTENDANCE", models.CategoryAttendance, nil},
		{"check out", "POST", "/attendance/check-out", "CHECK_OUT", "ATTENDANCE", models.CategoryAttendance, nil},
		{"view attendance", "GET", "/attendance", "VIEW_ATTENDANCE", "ATTENDANCE", models.CategoryAttendance, nil},
		{"create payment", "POST", "/payments", "CREATE_PAYMENT", "PAYMENT", models.CategoryPayment, nil},
		{"view membership", "GET", "/memberships/3", "VIEW_MEMBERSHIP", "MEMBERSHIP", models.CategoryPayment, id(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.method, tt.path)
			assert.Equal(t, tt.action, result.Action)
			assert.Equal(t, tt.resourceType, result.ResourceType)
			assert.Equal(t, tt.category, result.Category)
			if tt.resourceID == nil {
				assert.Nil(t, result.ResourceID)
			} else {
				require.NotNil(t, result.ResourceID)
				assert.Equal(t, *tt.resourceID, *result.ResourceID)
			}
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	result := Classify("GET", "/unknown/path")
	assert.Equal(t, "GET", result.Action)
	assert.Equal(t, models.ResourceTypeUnknown, result.ResourceType)
	assert.Equal(t, models.CategorySystem, result.Category)
	assert.Nil(t, result.ResourceID)
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// The path contains both "/users" and "/admin"; the users rule
	// is evaluated first.
	result := Classify("GET", "/admin/users/5")
	assert.Equal(t, "VIEW_USER", result.Action)
	assert.Equal(t, models.CategoryUser, result.Category)
}

func TestExtractResourceID(t *testing.T) {
	tests := []struct {
		path string
		want *int64
	}{
		{"/sessions/123/attendees", id(123)},
		{"/users/42", id(42)},
		{"/users/42abc", nil},
		{"/v2/report-2024", nil},
		{"/users", nil},
		{"/users/0042", id(42)},
		{"/a/1/b/2", id(1)},
	}

	for _, tt := range tests {
		got := extractResourceID(tt.path)
		if tt.want == nil {
			assert.Nil(t, got, tt.path)
		} else {
			require.NotNil(t, got, tt.path)
			assert.Equal(t, *tt.want, *got, tt.path)
		}
	}
}

func TestSeverityBoundaries(t *testing.T) {
	tests := []struct {
		status int
		want   models.Severity
	}{
		{200, models.SeverityInfo},
		{299, models.SeverityInfo},
		{300, models.SeverityWarning},
		{399, models.SeverityWarning},
		{400, models.SeverityError},
		{499, models.SeverityError},
		{500, models.SeverityCritical},
		{503, models.SeverityCritical},
		{101, models.SeverityInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityFor(tt.status), "status %d", tt.status)
	}
}

func id(v int64) *int64 {
	return &v
}
