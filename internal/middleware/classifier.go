package middleware

import (
	"strconv"
	"strings"

	"github.com/fitpulse/gym-api/internal/models"
)

// Classification is the semantic description of a request derived from its
// method and path alone.
type Classification struct {
	Action       string
	ResourceType string
	ResourceID   *int64
	Category     models.Category
}

// classificationRule matches a path by case-sensitive substring containment.
// A non-empty Action wins regardless of method; otherwise the action is the
// method verb joined with Suffix (GET->VIEW_, POST->CREATE_, PUT->UPDATE_,
// DELETE->DELETE_).
type classificationRule struct {
	Substr       string
	ResourceType string
	Category     models.Category
	Action       string
	Suffix       string
}

// classificationRules is evaluated in order, first match wins. Specific
// sub-action rules are listed before their generic fallbacks.
var classificationRules = []classificationRule{
	{Substr: "/auth/login", ResourceType: "AUTH", Category: models.CategoryAuth, Action: "LOGIN"},
	{Substr: "/auth/register", ResourceType: "AUTH", Category: models.CategoryAuth, Action: "REGISTER"},
	{Substr: "/auth/logout", ResourceType: "AUTH", Category: models.CategoryAuth, Action: "LOGOUT"},

	{Substr: "/users", ResourceType: "USER", Category: models.CategoryUser, Suffix: "USER"},

	{Substr: "/admin/bulk-delete", ResourceType: "USER", Category: models.CategoryAdmin, Action: "BULK_DELETE_USERS"},
	{Substr: "/admin/bulk-update", ResourceType: "USER", Category: models.CategoryAdmin, Action: "BULK_UPDATE_USERS"},
	{Substr: "/admin/send-email", ResourceType: "EMAIL", Category: models.CategoryAdmin, Action: "SEND_EMAIL"},
	{Substr: "/admin/import-csv", ResourceType: "USER", Category: models.CategoryAdmin, Action: "IMPORT_CSV"},
	{Substr: "/admin/dashboard-analytics", ResourceType: "ANALYTICS", Category: models.CategoryAdmin, Action: "VIEW_DASHBOARD_ANALYTICS"},
	{Substr: "/admin/advanced-analytics", ResourceType: "ANALYTICS", Category: models.CategoryAdmin, Action: "VIEW_ADVANCED_ANALYTICS"},
	{Substr: "/admin/load", ResourceType: "DASHBOARD", Category: models.CategoryAdmin, Action: "LOAD_DASHBOARD"},
	{Substr: "/admin", ResourceType: "ADMIN", Category: models.CategoryAdmin, Suffix: "ADMIN_DATA"},

	{Substr: "/sessions", ResourceType: "SESSION", Category: models.CategorySession, Suffix: "SESSION"},

	{Substr: "check-in", ResourceType: "ATTENDANCE", Category: models.CategoryAttendance, Action: "CHECK_IN"},
	{Substr: "check-out", ResourceType: "ATTENDANCE", Category: models.CategoryAttendance, Action: "CHECK_OUT"},
	{Substr: "/attendance", ResourceType: "ATTENDANCE", Category: models.CategoryAttendance, Suffix: "ATTENDANCE"},

	{Substr: "/payments", ResourceType: "PAYMENT", Category: models.CategoryPayment, Suffix: "PAYMENT"},
	{Substr: "/memberships", ResourceType: "MEMBERSHIP", Category: models.CategoryPayment, Suffix: "MEMBERSHIP"},
}

var methodVerbs = map[string]string{
	"GET":    "VIEW",
	"POST":   "CREATE",
	"PUT":    "UPDATE",
	"DELETE": "DELETE",
}

// Classify maps (method, path) to a semantic action, resource type,
// optional resource id and category. It is a total function: requests that
// match no rule fall back to the raw method, UNKNOWN and SYSTEM.
func Classify(method, path string) Classification {
	result := Classification{
		Action:       method,
		ResourceType: models.ResourceTypeUnknown,
		Category:     models.CategorySystem,
		ResourceID:   extractResourceID(path),
	}

	for _, rule := range classificationRules {
		if !strings.Contains(path, rule.Substr) {
			continue
		}
		result.ResourceType = rule.ResourceType
		result.Category = rule.Category
		if rule.Action != "" {
			result.Action = rule.Action
		} else if verb, ok := methodVerbs[method]; ok {
			result.Action = verb + "_" + rule.Suffix
		} else {
			result.Action = method + "_" + rule.Suffix
		}
		return result
	}

	return result
}

// SeverityFor grades a response status code. Total over all integers.
func SeverityFor(statusCode int) models.Severity {
	switch {
	case statusCode >= 500:
		return models.SeverityCritical
	case statusCode >= 400:
		return models.SeverityError
	case statusCode >= 300:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// extractResourceID returns the first path segment made up entirely of
// decimal digits. Digits embedded in a wider segment never match.
func extractResourceID(path string) *int64 {
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || !isAllDigits(segment) {
			continue
		}
		id, err := strconv.ParseInt(segment, 10, 64)
		if err != nil {
			continue
		}
		return &id
	}
	return nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
