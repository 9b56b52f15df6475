package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestLogger_WithComponentReplacesName(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentApp).With(FieldRequestID, "req-1").WithComponent(ComponentHTTP)

	logger.Info("hello")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Errorf("expected a single http component, got %q", out)
	}
	if !strings.Contains(out, "request_id=req-1") {
		t.Errorf("With attributes should survive WithComponent, got %q", out)
	}
	if logger.Component() != ComponentHTTP {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("quiet")
	logger.Warn("loud")

	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentBudget)

	fields := NewFields().
		WithOperation(OpCreate).
		WithExpenditure("mem:1", "Food", "$12.50").
		WithError(errors.New("boom")).
		WithError(nil)
	logger.LogFields(context.Background(), slog.LevelInfo, "record", fields)

	for _, want := range []string{"operation=create", "record_id=mem:1", "category=Food", "error=boom"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in %q", want, buf.String())
		}
	}
}

func TestMiddleware_AttachesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)

	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "component=http") || !strings.Contains(buf.String(), "inside handler") {
		t.Errorf("request logger not attached: %q", buf.String())
	}
}

func TestFromContext_DefaultsWhenMissing(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("unexpected fallback logger: %+v", l)
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := []struct {
		code int
		want slog.Level
	}{
		{200, slog.LevelInfo},
		{302, slog.LevelInfo},
		{404, slog.LevelWarn},
		{422, slog.LevelWarn},
		{500, slog.LevelError},
	}
	for _, tt := range tests {
		if got := LevelForStatus(tt.code); got != tt.want {
			t.Errorf("LevelForStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
