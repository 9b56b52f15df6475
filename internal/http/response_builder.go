package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"budgetr/internal/budget"
	"budgetr/internal/core"
	"budgetr/internal/settings"
	"budgetr/internal/store"
)

// JSONResponseBuilder builds a JSON response fluently.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the response. A nil payload writes headers only.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError reports invalid input, optionally per field.
func UnprocessableEntityError(message string, fields map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Data(errorBody{Error: message, Fields: fields})
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, settings.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrDescriptionLong),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, budget.ErrInvalidInput),
		errors.Is(err, settings.ErrInvalidValue):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorFor builds the response for a service error. Internal errors are not
// echoed to the client.
func errorFor(err error) *JSONResponseBuilder {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		return InternalServerError()
	}
	return ErrorResponse(code, err.Error())
}

type expenditureResponse struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	AmountFormatted string    `json:"amountFormatted"`
	Category        string    `json:"category"`
	Priority        int       `json:"priority"`
	Date            string    `json:"date"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newExpenditureResponse(e core.Expenditure) expenditureResponse {
	return expenditureResponse{
		ID:              e.ID,
		Description:     e.Description,
		Amount:          e.Amount.StringFixed(2),
		AmountFormatted: core.FormatMoney(e.Amount),
		Category:        e.CategoryOrDefault(),
		Priority:        e.Priority,
		Date:            e.Date.Format("2006-01-02"),
		CreatedAt:       e.CreatedAt,
	}
}

type expenditureListResponse struct {
	Frequency    string                `json:"frequency"`
	Label        string                `json:"label"`
	Expenditures []expenditureResponse `json:"expenditures"`
}

type categoryResponse struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Percent  int    `json:"percent"`
}

type summaryResponse struct {
	Frequency           string             `json:"frequency"`
	Label               string             `json:"label"`
	TotalSpent          string             `json:"totalSpent"`
	NetIncome           string             `json:"netIncome"`
	AverageMonthly      string             `json:"averageMonthly"`
	AverageAtFrequency  string             `json:"averageAtFrequency"`
	Remaining           string             `json:"remaining"`
	TotalSpentFormatted string             `json:"totalSpentFormatted"`
	RemainingFormatted  string             `json:"remainingFormatted"`
	Categories          []categoryResponse `json:"categories"`
}

func newSummaryResponse(s budget.Summary) summaryResponse {
	cats := make([]categoryResponse, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, categoryResponse{
			Category: c.Category,
			Amount:   c.Amount.StringFixed(2),
			Percent:  c.Percent,
		})
	}
	return summaryResponse{
		Frequency:           s.Frequency.String(),
		Label:               s.Label,
		TotalSpent:          s.TotalSpent.StringFixed(2),
		NetIncome:           s.NetIncome.StringFixed(2),
		AverageMonthly:      s.AverageMonthly.StringFixed(2),
		AverageAtFrequency:  budget.ConvertMonthlyAmount(s.AverageMonthly, s.Frequency).StringFixed(2),
		Remaining:           s.Remaining.StringFixed(2),
		TotalSpentFormatted: core.FormatMoney(s.TotalSpent),
		RemainingFormatted:  core.FormatMoney(s.Remaining),
		Categories:          cats,
	}
}

type settingsResponse struct {
	Frequency        string `json:"frequency"`
	FrequencyLabel   string `json:"frequencyLabel"`
	NetMonthlyIncome string `json:"netMonthlyIncome"`
	CurrentSavings   string `json:"currentSavings"`
}

func newSettingsResponse(s settings.Snapshot) settingsResponse {
	return settingsResponse{
		Frequency:        s.Frequency.String(),
		FrequencyLabel:   s.Frequency.Label(),
		NetMonthlyIncome: s.NetMonthlyIncome.StringFixed(2),
		CurrentSavings:   s.CurrentSavings.StringFixed(2),
	}
}

type settingUpdatedResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type projectionResponse struct {
	MonthsRemaining           int    `json:"monthsRemaining"`
	AmountRemaining           string `json:"amountRemaining"`
	RequiredMonthly           string `json:"requiredMonthly"`
	AverageMonthly            string `json:"averageMonthly"`
	EstimatedAvailableMonthly string `json:"estimatedAvailableMonthly"`
	OnTrack                   bool   `json:"onTrack"`
	Shortfall                 string `json:"shortfall"`
}

func newProjectionResponse(p budget.GoalProjection) projectionResponse {
	return projectionResponse{
		MonthsRemaining:           p.MonthsRemaining,
		AmountRemaining:           p.AmountRemaining.StringFixed(2),
		RequiredMonthly:           p.RequiredMonthly.StringFixed(2),
		AverageMonthly:            p.AverageMonthly.StringFixed(2),
		EstimatedAvailableMonthly: p.EstimatedAvailableMonthly.StringFixed(2),
		OnTrack:                   p.OnTrack,
		Shortfall:                 p.Shortfall.StringFixed(2),
	}
}
