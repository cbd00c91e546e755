package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/stwalsh4118/deedchain/internal/models"
)

// MockRegistryRepository is a mock implementation of RegistryRepository for testing
type MockRegistryRepository struct {
	mock.Mock
}

func (m *MockRegistryRepository) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	args := m.Called(ctx, property)
	if fn, ok := args.Get(0).(func(context.Context, *models.Property) *models.Property); ok {
		return fn(ctx, property), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockRegistryRepository) GetPropertyByID(ctx context.Context, propertyID string) (*models.Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockRegistryRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockRegistryRepository) ListPropertiesByOwner(ctx context.Context, ownerAddress string) ([]models.Property, error) {
	args := m.Called(ctx, ownerAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockRegistryRepository) UpdateOwner(ctx context.Context, propertyID, ownerName, ownerAddress string, expectedRevision int64) error {
	args := m.Called(ctx, propertyID, ownerName, ownerAddress, expectedRevision)
	return args.Error(0)
}

func (m *MockRegistryRepository) CreateTransfer(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	args := m.Called(ctx, transfer)
	if fn, ok := args.Get(0).(func(context.Context, *models.Transfer) *models.Transfer); ok {
		return fn(ctx, transfer), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transfer), args.Error(1)
}

func (m *MockRegistryRepository) ListTransfers(ctx context.Context) ([]models.Transfer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transfer), args.Error(1)
}

func (m *MockRegistryRepository) ListTransfersByProperty(ctx context.Context, propertyID string) ([]models.Transfer, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transfer), args.Error(1)
}

// fakeSettler hands out valid, increasing references without delay.
type fakeSettler struct {
	calls int64
	err   error
}

func (f *fakeSettler) Settle(ctx context.Context) (models.TransactionRef, error) {
	n := atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return models.TransactionRef{}, f.err
	}
	return models.TransactionRef{
		Hash:        fmt.Sprintf("0x%064x", n),
		BlockNumber: 5_000_000 + n,
	}, nil
}

func (f *fakeSettler) count() int64 {
	return atomic.LoadInt64(&f.calls)
}

// recordingUploader pretends every document is stored and remembers the scopes used.
type recordingUploader struct {
	mu     sync.Mutex
	scopes []string
	failed map[models.DocumentType]bool
}

func (u *recordingUploader) StoreAll(_ context.Context, scope string, files map[models.DocumentType]*models.DocumentFile) models.DocumentURLs {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.scopes = append(u.scopes, scope)

	urls := models.DocumentURLs{}
	for doc, file := range files {
		if file == nil || u.failed[doc] {
			continue
		}
		urls[doc] = "http://localhost:8080/documents/" + strings.Trim(scope, "/") + "/" + string(doc) + ".pdf"
	}
	return urls
}

func (u *recordingUploader) recordedScopes() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.scopes...)
}
