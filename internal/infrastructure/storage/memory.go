package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

// MemoryStore keeps the log in process memory. Used by dry runs and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	opportunities map[string]domain.Opportunity
	contents      []domain.GeneratedContent
	outcomes      []domain.OutcomeRecord
	budgets       []budgetSnapshot
}

type budgetSnapshot struct {
	at      time.Time
	balance float64
}

var _ ports.Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{opportunities: map[string]domain.Opportunity{}}
}

// SaveOpportunities keeps the first copy of each opportunity ID.
func (m *MemoryStore) SaveOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range opps {
		if _, ok := m.opportunities[o.ID]; !ok {
			m.opportunities[o.ID] = o
		}
	}
	return nil
}

// SaveContent appends generated content.
func (m *MemoryStore) SaveContent(ctx context.Context, c domain.GeneratedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents = append(m.contents, c)
	return nil
}

// AppendOutcome appends a record to the outcome log.
func (m *MemoryStore) AppendOutcome(ctx context.Context, rec domain.OutcomeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Insights = append([]string(nil), rec.Insights...)
	m.outcomes = append(m.outcomes, rec)
	return nil
}

// ListOutcomes returns matching records oldest first.
func (m *MemoryStore) ListOutcomes(ctx context.Context, filter domain.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.OutcomeRecord, 0, len(m.outcomes))
	for _, rec := range m.outcomes {
		if !filter.Since.IsZero() && rec.CreatedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !rec.CreatedAt.Before(filter.Until) {
			continue
		}
		if filter.Category != "" && rec.Features.Category != filter.Category {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// SaveBudget records a balance snapshot.
func (m *MemoryStore) SaveBudget(ctx context.Context, balance float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets = append(m.budgets, budgetSnapshot{at: at, balance: balance})
	return nil
}

// LatestBudget returns the newest snapshot or domain.ErrNotFound.
func (m *MemoryStore) LatestBudget(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.budgets) == 0 {
		return 0, domain.ErrNotFound
	}
	latest := m.budgets[0]
	for _, b := range m.budgets[1:] {
		if !b.at.Before(latest.at) {
			latest = b
		}
	}
	return latest.balance, nil
}

// Contents returns a copy of stored content.
func (m *MemoryStore) Contents() []domain.GeneratedContent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.GeneratedContent(nil), m.contents...)
}

// Opportunities returns the number of stored opportunities.
func (m *MemoryStore) Opportunities() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.opportunities)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
