package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetr/internal/amqp"
	"budgetr/internal/budget"
	"budgetr/internal/core"
	applog "budgetr/internal/log"
	"budgetr/internal/settings"
	"budgetr/internal/store"
)

// ChangeProcessorConfig holds configuration for the change processor
type ChangeProcessorConfig struct {
	// MaxRetries is how many times one event is attempted before it is dropped (default: 3)
	MaxRetries int
}

func DefaultChangeProcessorConfig() ChangeProcessorConfig {
	return ChangeProcessorConfig{MaxRetries: 3}
}

// ChangeProcessor reacts to change events: new expenditures are mirrored to
// the exporter and the dashboard summary is recomputed and logged.
type ChangeProcessor struct {
	records  store.RecordStore
	settings store.SettingsStore
	exporter store.ExpenditureExporter
	config   ChangeProcessorConfig
	now      func() time.Time

	mu       sync.Mutex
	attempts map[string]int
	last     budget.Summary
}

// NewChangeProcessor creates a processor. exporter may be nil, in which case
// created events only refresh the summary.
func NewChangeProcessor(records store.RecordStore, st store.SettingsStore, exporter store.ExpenditureExporter, config ChangeProcessorConfig) *ChangeProcessor {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &ChangeProcessor{
		records:  records,
		settings: st,
		exporter: exporter,
		config:   config,
		now:      time.Now,
		attempts: make(map[string]int),
	}
}

// Handle processes one event. A returned error asks the broker to redeliver;
// after MaxRetries failures the event is logged and dropped.
func (p *ChangeProcessor) Handle(ctx context.Context, ev *amqp.ChangeEvent) error {
	var err error
	switch ev.Type {
	case amqp.EventExpenditureCreated:
		err = p.exportRecord(ctx, ev.RecordID)
	case amqp.EventExpenditureDeleted:
		slog.InfoContext(ctx, "Expenditure deleted", applog.FieldRecordID, ev.RecordID)
	case amqp.EventSettingsChanged:
		slog.InfoContext(ctx, "Settings changed", applog.FieldSettingKey, ev.SettingKey)
	default:
		err = fmt.Errorf("unknown event type: %s", ev.Type)
	}

	if err != nil {
		return p.handleFailure(ctx, ev, err)
	}
	p.clearAttempts(ev.ID)

	if err := p.refreshSummary(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to refresh summary", "error", err)
	}
	return nil
}

func (p *ChangeProcessor) exportRecord(ctx context.Context, id string) error {
	if p.exporter == nil {
		return nil
	}

	e, err := p.records.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		slog.InfoContext(ctx, "Expenditure no longer exists, skipping export", "record_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expenditure %s: %w", id, err)
	}

	ref, err := p.exporter.Export(ctx, e)
	if errors.Is(err, store.ErrAlreadyExported) {
		slog.InfoContext(ctx, "Expenditure already exported", "record_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("export expenditure %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Exported expenditure",
		"record_id", id,
		"ref", ref,
		"amount", core.FormatMoney(e.Amount))
	return nil
}

func (p *ChangeProcessor) handleFailure(ctx context.Context, ev *amqp.ChangeEvent, processErr error) error {
	p.mu.Lock()
	p.attempts[ev.ID]++
	attempt := p.attempts[ev.ID]
	p.mu.Unlock()

	slog.WarnContext(ctx, "Change event processing failed",
		"event_id", ev.ID,
		"type", ev.Type,
		"attempt", attempt,
		"error", processErr)

	if attempt >= p.config.MaxRetries {
		p.clearAttempts(ev.ID)
		slog.ErrorContext(ctx, "Change event dropped after max retries",
			"event_id", ev.ID,
			"record_id", ev.RecordID,
			"attempts", attempt)
		return nil
	}
	return processErr
}

func (p *ChangeProcessor) clearAttempts(id string) {
	p.mu.Lock()
	delete(p.attempts, id)
	p.mu.Unlock()
}

func (p *ChangeProcessor) refreshSummary(ctx context.Context) error {
	snap, err := settings.Load(ctx, p.settings)
	if err != nil {
		return err
	}
	records, err := p.records.ListExpenditures(ctx)
	if err != nil {
		return err
	}

	sum := budget.Summarize(records, snap.Frequency, snap.NetMonthlyIncome, p.now())
	p.mu.Lock()
	p.last = sum
	p.mu.Unlock()

	slog.InfoContext(ctx, "Budget summary",
		applog.FieldFrequency, sum.Frequency.String(),
		"total_spent", core.FormatMoney(sum.TotalSpent),
		"net_income", core.FormatMoney(sum.NetIncome),
		"remaining", core.FormatMoney(sum.Remaining),
		"categories", len(sum.Categories))
	return nil
}

// LastSummary returns the summary computed after the most recent event.
func (p *ChangeProcessor) LastSummary() budget.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
