package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stwalsh4118/deedchain/internal/models"
)

// memoryRepository is an in-process RegistryRepository. Every read returns
// copies so callers cannot mutate stored state.
type memoryRepository struct {
	mu         sync.RWMutex
	now        func() time.Time
	seq        int64
	properties map[string]*storedProperty
	transfers  []models.Transfer
}

type storedProperty struct {
	property models.Property
	seq      int64
}

// NewMemoryRepository creates an empty in-memory RegistryRepository.
func NewMemoryRepository() RegistryRepository {
	return newMemoryRepository(time.Now)
}

func newMemoryRepository(now func() time.Time) *memoryRepository {
	return &memoryRepository{
		now:        now,
		properties: make(map[string]*storedProperty),
	}
}

func (r *memoryRepository) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.properties[property.PropertyID]; exists {
		return nil, fmt.Errorf("property %s: %w", property.PropertyID, ErrDuplicateKey)
	}

	p := property.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Documents == nil {
		p.Documents = models.DocumentURLs{}
	}
	now := r.now().UTC()
	p.RegistrationDate = now
	p.UpdatedAt = now
	p.Revision = 1

	r.seq++
	r.properties[p.PropertyID] = &storedProperty{property: p, seq: r.seq}

	out := p.Clone()
	return &out, nil
}

func (r *memoryRepository) GetPropertyByID(ctx context.Context, propertyID string) (*models.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.properties[propertyID]
	if !ok {
		return nil, nil
	}
	out := stored.property.Clone()
	return &out, nil
}

func (r *memoryRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	return r.listProperties(ctx, func(models.Property) bool { return true })
}

func (r *memoryRepository) ListPropertiesByOwner(ctx context.Context, ownerAddress string) ([]models.Property, error) {
	return r.listProperties(ctx, func(p models.Property) bool {
		return models.SameAddress(p.OwnerAddress, ownerAddress)
	})
}

func (r *memoryRepository) listProperties(ctx context.Context, keep func(models.Property) bool) ([]models.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := make([]*storedProperty, 0, len(r.properties))
	for _, sp := range r.properties {
		if keep(sp.property) {
			stored = append(stored, sp)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq > stored[j].seq })

	out := make([]models.Property, 0, len(stored))
	for _, sp := range stored {
		out = append(out, sp.property.Clone())
	}
	return out, nil
}

func (r *memoryRepository) UpdateOwner(ctx context.Context, propertyID, ownerName, ownerAddress string, expectedRevision int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.properties[propertyID]
	if !ok {
		return fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
	}
	if stored.property.Revision != expectedRevision {
		return fmt.Errorf("property %s at revision %d: %w", propertyID, expectedRevision, ErrRevisionConflict)
	}

	stored.property.OwnerName = ownerName
	stored.property.OwnerAddress = ownerAddress
	stored.property.Revision++
	stored.property.UpdatedAt = r.now().UTC()
	return nil
}

func (r *memoryRepository) CreateTransfer(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.properties[transfer.PropertyID]; !ok {
		return nil, fmt.Errorf("property %s: %w", transfer.PropertyID, ErrNotFound)
	}

	t := transfer.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.TransferDate = r.now().UTC()

	r.transfers = append(r.transfers, t)

	out := t.Clone()
	return &out, nil
}

func (r *memoryRepository) ListTransfers(ctx context.Context) ([]models.Transfer, error) {
	return r.listTransfers(ctx, "")
}

func (r *memoryRepository) ListTransfersByProperty(ctx context.Context, propertyID string) ([]models.Transfer, error) {
	if strings.TrimSpace(propertyID) == "" {
		return []models.Transfer{}, nil
	}
	return r.listTransfers(ctx, propertyID)
}

func (r *memoryRepository) listTransfers(ctx context.Context, propertyID string) ([]models.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// transfers are appended in creation order; walk backwards for newest first
	out := make([]models.Transfer, 0, len(r.transfers))
	for i := len(r.transfers) - 1; i >= 0; i-- {
		t := r.transfers[i]
		if propertyID != "" && t.PropertyID != propertyID {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}
