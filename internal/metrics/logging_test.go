package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferedLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.InfoLevel)
	return zap.New(core)
}

func serveLogged(t *testing.T, req *http.Request, status int) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	w := httptest.NewRecorder()
	LoggingMiddleware(bufferedLogger(&buf))(handler).ServeHTTP(w, req)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry), "log: %s", buf.String())
	return logEntry, w
}

func TestLoggingMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/signals", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	logEntry, _ := serveLogged(t, req, http.StatusTeapot)

	assert.Equal(t, "GET", logEntry["method"])
	assert.Equal(t, "/api/v1/signals", logEntry["path"])
	assert.Equal(t, float64(http.StatusTeapot), logEntry["status"])
	assert.Contains(t, logEntry, "duration_ms")
	assert.Equal(t, "192.168.1.1:12345", logEntry["client_ip"])
}

func TestLoggingMiddleware_AddsRequestID(t *testing.T) {
	logEntry, w := serveLogged(t, httptest.NewRequest("GET", "/test", nil), http.StatusOK)

	requestID := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, logEntry["request_id"])
}

func TestLoggingMiddleware_KeepsCallerRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	logEntry, w := serveLogged(t, req, http.StatusOK)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", logEntry["request_id"])
}

func TestLoggingMiddleware_XForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.2")
	req.RemoteAddr = "10.0.0.1:54321"

	logEntry, _ := serveLogged(t, req, http.StatusOK)

	assert.Equal(t, "203.0.113.50", logEntry["client_ip"])
}
