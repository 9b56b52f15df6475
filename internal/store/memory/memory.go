package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"budgetr/internal/core"
	"budgetr/internal/store"

	"github.com/BurntSushi/toml"
)

// Store keeps records and settings in process memory. Store is a
// store.RecordStore; Settings returns the matching store.SettingsStore.
type Store struct {
	mu       sync.Mutex
	nextID   int
	items    map[string]core.Expenditure
	settings map[string]string
	now      func() time.Time
}

func New() *Store {
	return &Store{
		items:    make(map[string]core.Expenditure),
		settings: make(map[string]string),
		now:      time.Now,
	}
}

// Seed is the layout of a TOML seed file:
//
//	[settings]
//	frequency = "month"
//	netMonthlyIncome = "4200"
//
//	[[expenditures]]
//	description = "Rent"
//	amount = "1450.00"
//	category = "Housing"
//	priority = 1
//	date = "2026-01-01"
type Seed struct {
	Settings     map[string]string `toml:"settings"`
	Expenditures []SeedRecord      `toml:"expenditures"`
}

type SeedRecord struct {
	Description string `toml:"description"`
	Amount      string `toml:"amount"`
	Category    string `toml:"category"`
	Priority    int    `toml:"priority"`
	Date        string `toml:"date"`
}

// NewFromFile builds a store from a TOML seed file. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed Seed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if err := s.load(seed); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) load(seed Seed) error {
	for k, v := range seed.Settings {
		s.settings[k] = v
	}
	for i, r := range seed.Expenditures {
		amount, err := core.ParseAmount(r.Amount)
		if err != nil {
			return fmt.Errorf("expenditure %d: %w", i+1, err)
		}
		e := core.Expenditure{
			Description: r.Description,
			Amount:      amount,
			Category:    r.Category,
			Priority:    r.Priority,
		}
		if strings.TrimSpace(r.Date) != "" {
			d, err := core.ParseDate(r.Date)
			if err != nil {
				return fmt.Errorf("expenditure %d: %w", i+1, err)
			}
			e.Date = d
		}
		if _, err := s.Append(context.Background(), e); err != nil {
			return fmt.Errorf("expenditure %d: %w", i+1, err)
		}
	}
	return nil
}

// Append stores the expenditure and returns a synthetic id.
func (s *Store) Append(_ context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e = e.Normalize(s.now())
	e.ID = "mem:" + strconv.Itoa(s.nextID)
	s.items[e.ID] = e
	return e.ID, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expenditure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expenditure{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// ListExpenditures returns a copy of every record in insertion order.
func (s *Store) ListExpenditures(_ context.Context) ([]core.Expenditure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expenditure, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(out[i].ID, "mem:"))
		b, _ := strconv.Atoi(strings.TrimPrefix(out[j].ID, "mem:"))
		return a < b
	})
	return out, nil
}

// Settings returns a view of the store that satisfies store.SettingsStore.
func (s *Store) Settings() *Settings {
	return &Settings{s: s}
}

// Settings is the key/value half of Store.
type Settings struct {
	s *Store
}

func (st *Settings) Get(_ context.Context, key string) (string, bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	v, ok := st.s.settings[key]
	return v, ok, nil
}

func (st *Settings) Set(_ context.Context, key, value string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.settings[key] = value
	return nil
}
