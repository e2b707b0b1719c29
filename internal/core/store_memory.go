package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/propscrub/internal/billing"
)

// MemoryStore keeps everything in process. It backs the CLI and tests.
type MemoryStore struct {
	mu        sync.Mutex
	templates map[string]MappingTemplate
	runs      []RunRecord
	balances  map[string]billing.Balance
	purchases []string
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]MappingTemplate),
		balances:  make(map[string]billing.Balance),
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateTemplate(_ context.Context, t MappingTemplate) (*MappingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nameTaken(t.Name, "") {
		return nil, fmt.Errorf("%q: %w", t.Name, ErrTemplateExists)
	}
	now := m.now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.templates[t.ID] = t
	return &t, nil
}

func (m *MemoryStore) GetTemplate(_ context.Context, id string) (*MappingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return &t, nil
}

func (m *MemoryStore) ListTemplates(_ context.Context) ([]MappingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MappingTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (m *MemoryStore) UpdateTemplate(_ context.Context, t MappingTemplate) (*MappingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.templates[t.ID]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	if m.nameTaken(t.Name, t.ID) {
		return nil, fmt.Errorf("%q: %w", t.Name, ErrTemplateExists)
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = m.now()
	m.templates[t.ID] = t
	return &t, nil
}

func (m *MemoryStore) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[id]; !ok {
		return ErrTemplateNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *MemoryStore) nameTaken(name, exceptID string) bool {
	for id, t := range m.templates {
		if id != exceptID && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) InsertRun(_ context.Context, r RunRecord) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = uuid.NewString()
	m.runs = append(m.runs, r)
	return &r, nil
}

// ListRuns returns the newest runs first.
func (m *MemoryStore) ListRuns(_ context.Context, account string, limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []RunRecord
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Account != account {
			continue
		}
		out = append(out, m.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) PurgeRuns(_ context.Context, olderThanDays int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().AddDate(0, 0, -olderThanDays)
	kept := m.runs[:0]
	var purged int64
	for _, r := range m.runs {
		if r.StartedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	m.runs = kept
	return purged, nil
}

func (m *MemoryStore) GetBalance(_ context.Context, account string, start billing.Balance) (billing.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(account, start), nil
}

func (m *MemoryStore) AdjustBalance(_ context.Context, account string, start billing.Balance, fn func(billing.Balance) (billing.Balance, error)) (billing.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(m.balanceLocked(account, start))
	if err != nil {
		return billing.Balance{}, err
	}
	m.balances[account] = next
	return next, nil
}

func (m *MemoryStore) Purchase(_ context.Context, account string, start billing.Balance, opt billing.PurchaseOption) (billing.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.balanceLocked(account, start).Credit(opt)
	m.balances[account] = next
	m.purchases = append(m.purchases, opt.ID)
	return next, nil
}

func (m *MemoryStore) balanceLocked(account string, start billing.Balance) billing.Balance {
	b, ok := m.balances[account]
	if !ok {
		b = start
		m.balances[account] = b
	}
	return b
}
