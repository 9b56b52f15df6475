package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgetr/internal/amqp"
	"budgetr/internal/budget"
	"budgetr/internal/cache"
	"budgetr/internal/core"
	"budgetr/internal/settings"
	"budgetr/internal/store"
	"budgetr/internal/store/memory"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// countingStore counts list calls so cache hits can be observed.
type countingStore struct {
	store.RecordStore
	lists int
}

func (c *countingStore) ListExpenditures(ctx context.Context) ([]core.Expenditure, error) {
	c.lists++
	return c.RecordStore.ListExpenditures(ctx)
}

func newTestService(t *testing.T, opts ...Option) (*BudgetService, *memory.Store, *recordingPublisher) {
	t.Helper()
	mem := memory.New()
	pub := &recordingPublisher{}
	opts = append([]Option{WithPublisher(pub), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewBudgetService(mem, mem.Settings(), opts...), mem, pub
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBudgetService_AddExpenditure(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	e, err := svc.AddExpenditure(ctx, core.Expenditure{Description: " Rent ", Amount: dec("900")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == "" || e.Description != "Rent" || e.Category != core.UncategorizedLabel || !e.Date.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", e)
	}

	if got := pub.types(); len(got) != 1 || got[0] != amqp.EventExpenditureCreated {
		t.Fatalf("events = %v", got)
	}
	if pub.events[0].RecordID != e.ID {
		t.Fatalf("event record id = %q, want %q", pub.events[0].RecordID, e.ID)
	}
}

func TestBudgetService_AddExpenditureValidation(t *testing.T) {
	svc, _, pub := newTestService(t)
	_, err := svc.AddExpenditure(context.Background(), core.Expenditure{Description: "x", Amount: decimal.Zero})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(pub.types()) != 0 {
		t.Fatal("no event expected for a rejected write")
	}
}

func TestBudgetService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, mem, pub := newTestService(t)
	pub.err = errors.New("broker down")

	e, err := svc.AddExpenditure(ctx, core.Expenditure{Description: "x", Amount: dec("5")})
	if err != nil {
		t.Fatalf("add should succeed despite publish failure: %v", err)
	}
	if _, err := mem.Get(ctx, e.ID); err != nil {
		t.Fatalf("record not saved: %v", err)
	}
}

func TestBudgetService_DeleteExpenditure(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	e, _ := svc.AddExpenditure(ctx, core.Expenditure{Description: "x", Amount: dec("5")})
	if err := svc.DeleteExpenditure(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteExpenditure(ctx, e.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got := pub.types()
	if len(got) != 2 || got[1] != amqp.EventExpenditureDeleted {
		t.Fatalf("events = %v", got)
	}
}

func TestBudgetService_ListExpendituresOrdered(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for _, in := range []core.Expenditure{
		{Description: "low", Amount: dec("1")},
		{Description: "high", Amount: dec("1"), Priority: 1},
	} {
		if _, err := svc.AddExpenditure(ctx, in); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	list, err := svc.ListExpenditures(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Description != "high" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestBudgetService_DisplayExpenditures(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(t)
	_ = mem.Settings().Set(ctx, settings.KeyFrequency, "year")
	_, _ = svc.AddExpenditure(ctx, core.Expenditure{Description: "gym", Amount: dec("30")})

	list, f, err := svc.DisplayExpenditures(ctx, "")
	if err != nil {
		t.Fatalf("display: %v", err)
	}
	if f != core.Year || len(list) != 1 || !list[0].Amount.Equal(dec("360")) {
		t.Fatalf("unexpected yearly list: %s %+v", f, list)
	}

	list, f, _ = svc.DisplayExpenditures(ctx, core.Month)
	if f != core.Month || !list[0].Amount.Equal(dec("30")) {
		t.Fatalf("override ignored: %s %+v", f, list)
	}

	stored, _ := mem.ListExpenditures(ctx)
	if !stored[0].Amount.Equal(dec("30")) {
		t.Fatalf("stored amount must stay monthly, got %s", stored[0].Amount)
	}
}

func TestBudgetService_Dashboard(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(t)

	_ = mem.Settings().Set(ctx, settings.KeyFrequency, "year")
	_ = mem.Settings().Set(ctx, settings.KeyNetMonthlyIncome, "2000")
	_, _ = svc.AddExpenditure(ctx, core.Expenditure{Description: "rent", Amount: dec("1500"), Category: "Housing"})

	sum, err := svc.Dashboard(ctx, "")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if sum.Frequency != core.Year || !sum.TotalSpent.Equal(dec("18000")) || !sum.Remaining.Equal(dec("6000")) {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	weekly, err := svc.Dashboard(ctx, "Weekly")
	if err != nil {
		t.Fatalf("dashboard override: %v", err)
	}
	if weekly.Frequency != core.Weekly || weekly.Label != "Week" {
		t.Fatalf("override ignored: %+v", weekly)
	}
}

func TestBudgetService_DashboardCacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	counting := &countingStore{RecordStore: mem}
	svc := NewBudgetService(counting, mem.Settings(),
		WithDashboardCache(cache.NewLRUCache[budget.Summary](8, time.Minute)),
		WithClock(func() time.Time { return fixedNow }))

	if _, err := svc.Dashboard(ctx, ""); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if _, err := svc.Dashboard(ctx, ""); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if counting.lists != 1 {
		t.Fatalf("second dashboard should be cached, lists = %d", counting.lists)
	}

	if _, err := svc.AddExpenditure(ctx, core.Expenditure{Description: "x", Amount: dec("10")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	sum, _ := svc.Dashboard(ctx, "")
	if counting.lists != 2 || !sum.TotalSpent.Equal(dec("10")) {
		t.Fatalf("cache not invalidated: lists=%d total=%s", counting.lists, sum.TotalSpent)
	}
}

func TestBudgetService_UpdateSetting(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	v, err := svc.UpdateSetting(ctx, settings.KeyNetMonthlyIncome, "$3,100")
	if err != nil || v != "3100" {
		t.Fatalf("update: v=%q err=%v", v, err)
	}
	if _, err := svc.UpdateSetting(ctx, settings.KeyNetMonthlyIncome, "lots"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}

	snap, _ := svc.Settings(ctx)
	if !snap.NetMonthlyIncome.Equal(dec("3100")) {
		t.Fatalf("previous value should be kept, got %s", snap.NetMonthlyIncome)
	}
	if got := pub.types(); len(got) != 1 || got[0] != amqp.EventSettingsChanged || pub.events[0].SettingKey != settings.KeyNetMonthlyIncome {
		t.Fatalf("events = %v", got)
	}
}

func TestBudgetService_ProjectGoal(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(t)
	_ = mem.Settings().Set(ctx, settings.KeyNetMonthlyIncome, "150")
	_ = mem.Settings().Set(ctx, settings.KeyCurrentSavings, "200")
	_, _ = svc.AddExpenditure(ctx, core.Expenditure{Description: "food", Amount: dec("100")})

	p, err := svc.ProjectGoal(ctx, GoalRequest{
		TargetAmount:       dec("1400"),
		TargetDate:         fixedNow.AddDate(1, 0, 0),
		UseAverageExpenses: true,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	// 1200 remaining over 12 months = 100 required; 150 - 100 = 50 available.
	if p.MonthsRemaining != 12 || !p.RequiredMonthly.Equal(dec("100")) || !p.EstimatedAvailableMonthly.Equal(dec("50")) {
		t.Fatalf("unexpected projection: %+v", p)
	}
	if p.OnTrack || !p.Shortfall.Equal(dec("50")) {
		t.Fatalf("expected shortfall of 50: %+v", p)
	}

	if _, err := svc.ProjectGoal(ctx, GoalRequest{TargetAmount: dec("100")}); !errors.Is(err, budget.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
