package sweets

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. The map lock only guards membership;
// each sweet carries its own lock so stock moves on different items never
// contend.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*memoryEntry
	order []uuid.UUID
	now   func() time.Time
}

type memoryEntry struct {
	mu      sync.Mutex
	sweet   models.Sweet
	deleted bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[uuid.UUID]*memoryEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(ctx context.Context, input CreateInput) (*models.Sweet, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sweet := models.Sweet{
		ID:        uuid.New(),
		Name:      input.Name,
		Category:  input.Category,
		Price:     input.Price,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.items[sweet.ID] = &memoryEntry{sweet: sweet}
	m.order = append(m.order, sweet.ID)
	m.mu.Unlock()

	return &sweet, nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	entry, ok := m.lookup(id)
	if !ok {
		return nil, notFound(id)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, notFound(id)
	}
	sweet := entry.sweet
	return &sweet, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Sweet, error) {
	return m.Search(ctx, Filters{})
}

func (m *MemoryStore) Search(ctx context.Context, filters Filters) ([]models.Sweet, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.order))
	for _, id := range m.order {
		entries = append(entries, m.items[id])
	}
	m.mu.RUnlock()

	snapshot := make([]models.Sweet, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if !entry.deleted {
			snapshot = append(snapshot, entry.sweet)
		}
		entry.mu.Unlock()
	}
	return filterSweets(snapshot, filters), nil
}

func (m *MemoryStore) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Sweet, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	entry, ok := m.lookup(id)
	if !ok {
		return nil, notFound(id)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, notFound(id)
	}

	input.apply(&entry.sweet)
	entry.sweet.UpdatedAt = m.now()
	sweet := entry.sweet
	return &sweet, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	entry, ok := m.items[id]
	if ok {
		delete(m.items, id)
		m.order = slices.DeleteFunc(m.order, func(candidate uuid.UUID) bool { return candidate == id })
	}
	m.mu.Unlock()
	if !ok {
		return notFound(id)
	}

	// in-flight mutations holding the entry must observe the removal
	entry.mu.Lock()
	entry.deleted = true
	entry.mu.Unlock()
	return nil
}

func (m *MemoryStore) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, guard bool) (*models.Sweet, error) {
	if err := checkDelta(delta, guard); err != nil {
		return nil, err
	}

	entry, ok := m.lookup(id)
	if !ok {
		return nil, notFound(id)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, notFound(id)
	}

	if guard && entry.sweet.Quantity+delta < 0 {
		return nil, insufficientStock(id, entry.sweet.Quantity, -delta)
	}
	if overflows(entry.sweet.Quantity, delta) {
		return nil, quantityOverflow(delta)
	}
	entry.sweet.Quantity += delta
	entry.sweet.UpdatedAt = m.now()
	sweet := entry.sweet
	return &sweet, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) lookup(id uuid.UUID) (*memoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.items[id]
	return entry, ok
}
