package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fitpulse/gym-api/internal/models"
)

// AccessEventRecorder receives the raw capture of a completed request.
// Implementations must return immediately; persistence happens elsewhere.
type AccessEventRecorder interface {
	Record(entry models.AccessLogEntry)
}

// bodyCaptureWriter tees response bytes into a bounded buffer while passing
// them through unchanged. The client always observes the exact bytes the
// handler wrote.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	buf   bytes.Buffer
	limit int
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.capture(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *bodyCaptureWriter) capture(b []byte) {
	if w.limit <= 0 || w.buf.Len() >= w.limit {
		return
	}
	remaining := w.limit - w.buf.Len()
	if len(b) > remaining {
		b = b[:remaining]
	}
	w.buf.Write(b)
}

// AccessLog intercepts every request/response pair, classifies it and hands
// the capture to the recorder once the response is complete. It is a pure
// observer: nothing here may alter the response or surface an error to the
// client, and any panic while composing the entry is swallowed into the
// diagnostic logger.
func AccessLog(recorder AccessEventRecorder, logger *zap.Logger, bodyMaxBytes int) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bodyMaxBytes <= 0 {
		bodyMaxBytes = 4096
	}

	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(bodyMaxBytes)))
			if err == nil {
				requestBody = raw
				remainder, _ := io.ReadAll(c.Request.Body)
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), bytes.NewReader(remainder)))
			}
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, limit: bodyMaxBytes}
		c.Writer = writer

		path := c.Request.URL.Path
		method := c.Request.Method
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		c.Next()

		// The response has been finalized at this point; everything below
		// is invisible to the client.
		defer func() {
			if r := recover(); r != nil {
				logger.Error("access log capture failed", zap.Any("panic", r), zap.String("path", path))
			}
		}()

		classification := Classify(method, path)
		status := writer.Status()

		entry := models.AccessLogEntry{
			Action:         classification.Action,
			ResourceType:   classification.ResourceType,
			ResourceID:     classification.ResourceID,
			Method:         method,
			Endpoint:       path,
			StatusCode:     status,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			ClientIP:       clientIP,
			UserAgent:      userAgent,
			Severity:       SeverityFor(status),
			Category:       classification.Category,
			RequestBody:    requestBody,
			ResponseBody:   writer.buf.Bytes(),
		}

		if claims, ok := CurrentUser(c); ok {
			entry.UserID = &claims.UserID
			if claims.FullName != "" {
				name := claims.FullName
				entry.UserName = &name
			}
		}

		recorder.Record(entry)
	}
}
