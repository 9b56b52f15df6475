package budget

import (
	"testing"
	"time"

	"budgetr/internal/core"
)

func TestSummarize(t *testing.T) {
	records := []core.Expenditure{
		{Description: "rent", Amount: dec("900"), Category: "Housing", Date: now},
		{Description: "groceries", Amount: dec("250"), Category: "Food", Date: now},
		{Description: "coffee", Amount: dec("50"), Category: "Food", Date: now},
		{Description: "misc", Amount: dec("300"), Date: now},
	}

	s := Summarize(records, core.Year, dec("2000"), now)

	if s.Label != "Year" {
		t.Fatalf("label = %q", s.Label)
	}
	if !s.TotalSpent.Equal(dec("18000")) {
		t.Fatalf("total = %s, want 18000", s.TotalSpent)
	}
	if !s.NetIncome.Equal(dec("24000")) {
		t.Fatalf("income = %s, want 24000", s.NetIncome)
	}
	if !s.AverageMonthly.Equal(dec("1500")) {
		t.Fatalf("average = %s, want 1500", s.AverageMonthly)
	}
	if !s.Remaining.Equal(dec("6000")) {
		t.Fatalf("remaining = %s, want 6000", s.Remaining)
	}

	want := []struct {
		name    string
		amount  string
		percent int
	}{
		{"Housing", "10800", 60},
		{"Food", "3600", 20},
		{core.UncategorizedLabel, "3600", 20},
	}
	if len(s.Categories) != len(want) {
		t.Fatalf("categories = %+v", s.Categories)
	}
	for i, w := range want {
		c := s.Categories[i]
		if c.Category != w.name || !c.Amount.Equal(dec(w.amount)) || c.Percent != w.percent {
			t.Errorf("category %d = %+v, want %s %s %d%%", i, c, w.name, w.amount, w.percent)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, core.Frequency(""), dec("1000"), now)
	if !s.TotalSpent.IsZero() || !s.AverageMonthly.IsZero() {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if !s.Remaining.Equal(dec("1000")) {
		t.Fatalf("remaining = %s, want 1000", s.Remaining)
	}
	if len(s.Categories) != 0 {
		t.Fatalf("expected no categories")
	}
}

func TestSummarizeRemainingNeverNegative(t *testing.T) {
	records := []core.Expenditure{{Amount: dec("3000"), Date: now}}
	s := Summarize(records, core.Weekly, dec("1000"), now)
	if !s.Remaining.IsZero() {
		t.Fatalf("remaining = %s, want 0", s.Remaining)
	}
}

func TestSortForDisplay(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []core.Expenditure{
		{ID: "c", Priority: 99, CreatedAt: t0},
		{ID: "b", Priority: 1, CreatedAt: t0.Add(time.Hour)},
		{ID: "a", Priority: 1, CreatedAt: t0},
		{ID: "d", Priority: 5, CreatedAt: t0},
	}
	SortForDisplay(records)

	got := ""
	for _, r := range records {
		got += r.ID
	}
	if got != "abdc" {
		t.Fatalf("order = %q, want abdc", got)
	}
}
