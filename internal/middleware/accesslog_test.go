package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitpulse/gym-api/internal/models"
)

type fakeRecorder struct {
	mu      sync.Mutex
	entries []models.AccessLogEntry
}

func (r *fakeRecorder) Record(entry models.AccessLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *fakeRecorder) last(t *testing.T) models.AccessLogEntry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

type panickyRecorder struct{}

func (panickyRecorder) Record(models.AccessLogEntry) {
	panic("recorder down")
}

func newTestRouter(recorder AccessEventRecorder, bodyMax int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AccessLog(recorder, zap.NewNop(), bodyMax))
	return r
}

func TestAccessLogCapturesAndClassifies(t *testing.T) {
	recorder := &fakeRecorder{}
	r := newTestRouter(recorder, 4096)
	r.GET("/users/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req.Header.Set("User-Agent", "go-test/1.0")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())

	entry := recorder.last(t)
	assert.Equal(t, "VIEW_USER", entry.Action)
	assert.Equal(t, "USER", entry.ResourceType)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, int64(42), *entry.ResourceID)
	assert.Equal(t, http.MethodGet, entry.Method)
	assert.Equal(t, "/users/42", entry.Endpoint)
	assert.Equal(t, http.StatusOK, entry.StatusCode)
	assert.Equal(t, models.SeverityInfo, entry.Severity)
	assert.Equal(t, models.CategoryUser, entry.Category)
	assert.Equal(t, "go-test/1.0", entry.UserAgent)
	assert.GreaterOrEqual(t, entry.ResponseTimeMs, int64(0))
	assert.JSONEq(t, `{"message":"ok"}`, string(entry.ResponseBody))
	assert.Nil(t, entry.UserID)
	assert.Nil(t, entry.UserName)
}

func TestAccessLogPreservesRequestBodyForHandler(t *testing.T) {
	recorder := &fakeRecorder{}
	r := newTestRouter(recorder, 4096)

	var seen map[string]any
	r.POST("/auth/login", func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&seen))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	})

	body := `{"email":"jane@example.com","password":"secret"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// The handler read the full body even though the middleware had
	// already consumed it.
	assert.Equal(t, "jane@example.com", seen["email"])
	assert.Equal(t, "secret", seen["password"])

	entry := recorder.last(t)
	assert.Equal(t, "LOGIN", entry.Action)
	assert.Equal(t, models.SeverityError, entry.Severity)
	assert.JSONEq(t, body, string(entry.RequestBody))
}

func TestAccessLogTruncatesCapturedBodies(t *testing.T) {
	recorder := &fakeRecorder{}
	r := newTestRouter(recorder, 8)
	r.POST("/payments", func(c *gin.Context) {
		c.String(http.StatusOK, "0123456789abcdef")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader("requestbodytoolong"))
	r.ServeHTTP(w, req)

	// Truncation applies to the capture only, never the response.
	assert.Equal(t, "0123456789abcdef", w.Body.String())

	entry := recorder.last(t)
	assert.Equal(t, "requestb", string(entry.RequestBody))
	assert.Equal(t, "01234567", string(entry.ResponseBody))
}

func TestAccessLogAttributesAuthenticatedUser(t *testing.T) {
	recorder := &fakeRecorder{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: 7, FullName: "Jane Doe"})
	})
	r.Use(AccessLog(recorder, zap.NewNop(), 4096))
	r.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	entry := recorder.last(t)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, int64(7), *entry.UserID)
	require.NotNil(t, entry.UserName)
	assert.Equal(t, "Jane Doe", *entry.UserName)
}

func TestAccessLogRecorderPanicNeverReachesClient(t *testing.T) {
	r := newTestRouter(panickyRecorder{}, 4096)
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestBodyCaptureWriterBounds(t *testing.T) {
	w := &bodyCaptureWriter{ResponseWriter: httptestWriter(), limit: 4}
	_, err := w.Write([]byte("abcdef"))
	require.NoError(t, err)
	_, err = w.WriteString("ghi")
	require.NoError(t, err)
	assert.Equal(t, "abcd", w.buf.String())
}

func httptestWriter() gin.ResponseWriter {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	return c.Writer
}
