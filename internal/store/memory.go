package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

// Memory keeps payments and receipts in process. Used for local runs and tests.
type Memory struct {
	mu         sync.RWMutex
	payments   map[string]models.Payment
	tenants    map[string]models.Tenant
	properties map[string]models.Property
	receipts   map[string]models.Receipt // keyed by payment id
}

func NewMemory() *Memory {
	return &Memory{
		payments:   make(map[string]models.Payment),
		tenants:    make(map[string]models.Tenant),
		properties: make(map[string]models.Property),
		receipts:   make(map[string]models.Receipt),
	}
}

func (m *Memory) PutProperty(p models.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
}

func (m *Memory) PutTenant(t models.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
}

// PutPayment stores p without its joined fields; they are resolved on read.
func (m *Memory) PutPayment(p models.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Tenant, p.Property = nil, nil
	m.payments[p.ID] = p
}

// Fixture is the JSON layout accepted by Load.
type Fixture struct {
	Properties []models.Property `json:"properties"`
	Tenants    []models.Tenant   `json:"tenants"`
	Payments   []models.Payment  `json:"payments"`
}

// Load decodes a Fixture from r and stores every record in it.
func (m *Memory) Load(r io.Reader) error {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}

	for _, p := range f.Properties {
		m.PutProperty(p)
	}
	for _, t := range f.Tenants {
		m.PutTenant(t)
	}
	for _, p := range f.Payments {
		if p.ID == "" {
			return fmt.Errorf("fixture payment without id")
		}
		m.PutPayment(p)
	}
	return nil
}

// LoadFile is Load for a fixture on disk.
func (m *Memory) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return m.Load(f)
}

// PaymentCount is the number of payments stored.
func (m *Memory) PaymentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *Memory) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if t, ok := m.tenants[p.TenantID]; ok {
		tenant := t
		p.Tenant = &tenant
		if prop, ok := m.properties[t.PropertyID]; ok {
			property := prop
			p.Property = &property
		}
	}
	return &p, nil
}

func (m *Memory) GetByPaymentID(_ context.Context, paymentID string) (*models.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.receipts[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) InsertIfAbsent(_ context.Context, rec *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.receipts[rec.PaymentID]; ok {
		return ErrDuplicate
	}
	m.receipts[rec.PaymentID] = *rec
	return nil
}

func (m *Memory) ListByUser(_ context.Context, userID string, limit int) ([]models.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	receipts := []models.Receipt{}
	for _, rec := range m.receipts {
		if rec.UserID == userID {
			receipts = append(receipts, rec)
		}
	}
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
	})
	if limit = normalizeLimit(limit); len(receipts) > limit {
		receipts = receipts[:limit]
	}
	return receipts, nil
}

func (m *Memory) EnsureIndexes(context.Context) error { return nil }

// ReceiptCount is the number of receipts stored.
func (m *Memory) ReceiptCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}

