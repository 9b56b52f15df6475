package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFlexString_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"string", `{"v":"12,50"}`, "12,50", false},
		{"integer", `{"v":12}`, "12", false},
		{"float", `{"v":12.5}`, "12.5", false},
		{"null", `{"v":null}`, "", false},
		{"bool rejected", `{"v":true}`, "", true},
		{"object rejected", `{"v":{}}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				V flexString `json:"v"`
			}
			err := json.Unmarshal([]byte(tt.input), &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && dst.V.String() != tt.want {
				t.Fatalf("got %q, want %q", dst.V, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"single object", `{"value":"1"}`, false},
		{"trailing object", `{"value":"1"}{"value":"2"}`, true},
		{"unknown field", `{"other":"1"}`, true},
		{"not json", `value=1`, true},
		{"too large", `{"value":"` + strings.Repeat("9", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			var dst updateSettingRequest
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Fatalf("errors should wrap errBadRequest, got %v", err)
			}
		})
	}
}

func TestCreateExpenditureRequest_ToExpenditure(t *testing.T) {
	req := createExpenditureRequest{
		Description: "  Coffee\x00 ",
		Amount:      "3,456",
		Category:    " Food ",
		Date:        "2026-02-01",
	}
	e, fields := req.toExpenditure()
	if fields != nil {
		t.Fatalf("unexpected field errors: %v", fields)
	}
	if e.Description != "Coffee" || e.Category != "Food" || e.Amount.String() != "3.46" || e.Date.Day() != 1 {
		t.Fatalf("unexpected expenditure: %+v", e)
	}

	_, fields = createExpenditureRequest{Description: "x", Amount: "0", Date: "yesterday"}.toExpenditure()
	if fields["amount"] == "" || fields["date"] == "" {
		t.Fatalf("expected amount and date errors, got %v", fields)
	}
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	err := NewValidator().Validate(goalProjectionRequest{})
	fields := fieldErrors(err)
	if fields["targetAmount"] != "is required" || fields["targetDate"] != "is required" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
	if fieldErrors(errors.New("plain")) != nil {
		t.Fatal("non-validation errors should map to nil")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x07b\tc\n "); got != "ab\tc" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
