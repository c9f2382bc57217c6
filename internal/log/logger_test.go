package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: ComponentSession, Format: "json", Writer: buf})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf).Info("Session saved", FieldSessionID, "abc")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "session", entry[FieldComponent])
	assert.Equal(t, "abc", entry[FieldSessionID])
	assert.Equal(t, "Session saved", entry["msg"])
}

func TestWithComponentKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf).With(FieldRequestID, "r1").WithComponent(ComponentAPI)
	logger.Warn("Upstream slow")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "api", entry[FieldComponent])
	assert.Equal(t, "r1", entry[FieldRequestID])
	assert.Equal(t, "api", logger.Component())
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Equal(t, "unknown", logger.Component())
}

func TestLogErrorPrefersRequestLogger(t *testing.T) {
	var base, reqBuf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&base))

	var ctx context.Context
	handler := Middleware(newJSONLogger(&reqBuf).With(FieldRequestID, "req-1"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx = r.Context()
		}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	sl.LogError(ctx, "Expense API call failed", errors.New("boom"), ComponentDashboard, OpList, nil)

	assert.Zero(t, base.Len())
	entry := decodeLine(t, &reqBuf)
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "list", entry[FieldOperation])
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                  "INFO",
		http.StatusUnprocessableEntity: "WARN",
		http.StatusBadGateway:          "ERROR",
	}
	for status, level := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(newJSONLogger(&buf))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodPost, "/login", nil), "r", status, 3, "127.0.0.1")

		entry := decodeLine(t, &buf)
		assert.Equal(t, level, entry["level"], "status %d", status)
		assert.Equal(t, float64(status), entry[FieldStatusCode])
		assert.Equal(t, status < 400, entry[FieldSuccess])
	}
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf))
	sl.LogError(context.Background(), "Delete failed", errors.New("boom"), ComponentDashboard, OpDelete,
		NewFields().WithExpense(7, 0, "", ""))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "dashboard", entry[FieldComponent])
	assert.Equal(t, "delete", entry[FieldOperation])
	assert.Equal(t, "boom", entry[FieldError])
	assert.Equal(t, float64(7), entry[FieldExpenseID])
	_, hasCategory := entry[FieldCategoryID]
	assert.False(t, hasCategory)
}
