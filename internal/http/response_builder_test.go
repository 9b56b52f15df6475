package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetr/internal/budget"
	"budgetr/internal/core"
	"budgetr/internal/settings"
	"budgetr/internal/store"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenditures/1").
		Data(map[string]string{"id": "1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Location"); got != "/api/expenditures/1" {
		t.Errorf("Location = %q", got)
	}
	if strings.TrimSpace(w.Body.String()) != `{"id":"1"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with body %q", w.Code, w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("delete: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: \"theme\"", settings.ErrUnknownKey), http.StatusNotFound},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{core.ErrEmptyDescription, http.StatusUnprocessableEntity},
		{core.ErrDescriptionLong, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: goal", budget.ErrInvalidInput), http.StatusUnprocessableEntity},
		{settings.ErrInvalidValue, http.StatusUnprocessableEntity},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorForHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	errorFor(errors.New("pq: password authentication failed")).Write(w)

	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("internal error leaked: %s", w.Body.String())
	}
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
