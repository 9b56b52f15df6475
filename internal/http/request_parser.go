// Package http exposes the budget service as a JSON API.
//
// This file holds request decoding and the request payloads.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budgetr/internal/core"
	"budgetr/internal/services"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("malformed request body")

// flexString accepts a JSON string or a bare number, so both
// {"amount": "12.50"} and {"amount": 12.5} decode.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or a number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// decodeJSON reads exactly one JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

type createExpenditureRequest struct {
	Description string     `json:"description" validate:"required,max=200"`
	Amount      flexString `json:"amount" validate:"required"`
	Category    string     `json:"category" validate:"max=100"`
	Priority    int        `json:"priority" validate:"gte=0,lte=999"`
	Date        string     `json:"date"`
}

// toExpenditure converts the payload. Field problems are returned as a map
// keyed by JSON field name.
func (req createExpenditureRequest) toExpenditure() (core.Expenditure, map[string]string) {
	fields := map[string]string{}

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		fields["amount"] = "must be a positive number with at most two decimals"
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			fields["date"] = "must be YYYY-MM-DD or RFC 3339"
		}
	}

	if len(fields) > 0 {
		return core.Expenditure{}, fields
	}
	return core.Expenditure{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Priority:    req.Priority,
		Date:        date,
	}, nil
}

type updateSettingRequest struct {
	Value flexString `json:"value"`
}

type goalProjectionRequest struct {
	TargetAmount       flexString `json:"targetAmount" validate:"required"`
	TargetDate         string     `json:"targetDate" validate:"required"`
	UseAverageExpenses bool       `json:"useAverageExpenses"`
}

func (req goalProjectionRequest) toGoalRequest() (services.GoalRequest, map[string]string) {
	fields := map[string]string{}

	target, ok := core.ParseLenient(req.TargetAmount.String())
	if !ok {
		fields["targetAmount"] = "must be a number"
	}
	date, err := core.ParseDate(req.TargetDate)
	if err != nil {
		fields["targetDate"] = "must be YYYY-MM-DD or RFC 3339"
	}

	if len(fields) > 0 {
		return services.GoalRequest{}, fields
	}
	return services.GoalRequest{
		TargetAmount:       target,
		TargetDate:         date,
		UseAverageExpenses: req.UseAverageExpenses,
	}, nil
}

// frequencyQuery is the optional ?frequency= override. Values other than
// month, year, biweekly and weekly are kept and display at the monthly factor.
type frequencyQuery struct {
	Frequency string `json:"frequency" validate:"omitempty,max=32"`
}

func parseFrequencyQuery(r *http.Request) frequencyQuery {
	return frequencyQuery{Frequency: string(core.ParseFrequency(r.URL.Query().Get("frequency")))}
}

// sanitizeInput trims whitespace and strips control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
