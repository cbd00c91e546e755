package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stwalsh4118/deedchain/internal/identity"
	"github.com/stwalsh4118/deedchain/internal/locking"
	"github.com/stwalsh4118/deedchain/internal/logger"
	"github.com/stwalsh4118/deedchain/internal/metrics"
	"github.com/stwalsh4118/deedchain/internal/models"
	"github.com/stwalsh4118/deedchain/internal/repository"
	"github.com/stwalsh4118/deedchain/internal/settlement"
	"github.com/stwalsh4118/deedchain/internal/tracing"
	"github.com/stwalsh4118/deedchain/internal/validation"
)

// maxPropertyIDAttempts bounds how often a colliding property ID is regenerated.
const maxPropertyIDAttempts = 5

const (
	opRegister = "register"
	opTransfer = "transfer"
)

// RegistryService defines the registration and transfer workflows.
type RegistryService interface {
	// RegisterProperty validates the form, settles on the ledger, stores the
	// documents and records the property with the acting wallet as owner.
	// Returns ErrNotConnected, a *ValidationError, ErrSettlementFailed,
	// ErrSettlementTimeout or ErrPersistenceFailed.
	RegisterProperty(ctx context.Context, actor identity.Identity, form models.RegistrationForm) (*models.Receipt, error)

	// TransferProperty moves a property from its current owner to the buyer.
	// Only the current owner, acting as seller, may transfer.
	// Returns ErrNotConnected, a *ValidationError, ErrPropertyNotFound,
	// ErrUnauthorized, ErrSettlementFailed, ErrSettlementTimeout,
	// ErrPersistenceFailed or ErrReconciliationRequired.
	TransferProperty(ctx context.Context, actor identity.Identity, form models.TransferForm) (*models.Receipt, error)

	// GetProperty returns ErrPropertyNotFound if no property has the ID.
	GetProperty(ctx context.Context, propertyID string) (*models.Property, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	ListPropertiesByOwner(ctx context.Context, ownerAddress string) ([]models.Property, error)
	ListTransfers(ctx context.Context) ([]models.Transfer, error)
	// ListTransfersByProperty returns ErrPropertyNotFound if no property has the ID.
	ListTransfersByProperty(ctx context.Context, propertyID string) ([]models.Transfer, error)
}

// DocumentUploader stores a set of documents under a scope, best-effort.
type DocumentUploader interface {
	StoreAll(ctx context.Context, scope string, files map[models.DocumentType]*models.DocumentFile) models.DocumentURLs
}

// Dependencies wires a RegistryService. Repo and Settler are required.
type Dependencies struct {
	Repo              repository.RegistryRepository
	Settler           settlement.Settler
	Documents         DocumentUploader
	Locker            locking.Locker
	Metrics           *metrics.RegistryMetrics
	Tracer            trace.Tracer
	Log               *logger.Logger
	ExplorerHost      string
	SettlementTimeout time.Duration
	NewPropertyID     func() string
	Now               func() time.Time
}

// registryService is the concrete implementation of RegistryService.
type registryService struct {
	repo          repository.RegistryRepository
	settler       settlement.Settler
	documents     DocumentUploader
	locker        locking.Locker
	metrics       *metrics.RegistryMetrics
	tracer        trace.Tracer
	log           *logger.Logger
	explorerHost  string
	newPropertyID func() string
	now           func() time.Time
}

// NewRegistryService creates a RegistryService. Every settlement is bounded
// by deps.SettlementTimeout (settlement.DefaultTimeout when zero).
func NewRegistryService(deps Dependencies) RegistryService {
	s := &registryService{
		repo:          deps.Repo,
		settler:       settlement.WithTimeout(deps.Settler, deps.SettlementTimeout),
		documents:     deps.Documents,
		locker:        deps.Locker,
		metrics:       deps.Metrics,
		tracer:        deps.Tracer,
		log:           deps.Log,
		explorerHost:  deps.ExplorerHost,
		newPropertyID: deps.NewPropertyID,
		now:           deps.Now,
	}
	if s.locker == nil {
		s.locker = locking.NewLocalLocker()
	}
	if s.tracer == nil {
		s.tracer = tracing.Noop().Tracer()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.WithComponent("registry")
	if s.newPropertyID == nil {
		s.newPropertyID = NewPropertyID
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *registryService) RegisterProperty(ctx context.Context, actor identity.Identity, form models.RegistrationForm) (*models.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "registry.RegisterProperty")
	defer span.End()
	op := newOperation(opRegister, s.log, s.metrics, span)

	if !actor.Connected {
		op.to(StateRejected)
		return nil, ErrNotConnected
	}
	log := s.log.With(map[string]interface{}{"owner": actor.Address})

	op.to(StateValidating)
	if errs := validation.ValidateRegistration(form); len(errs) > 0 {
		log.Info("registration rejected by validation", map[string]interface{}{
			"fields": errs,
		})
		op.to(StateRejected)
		return nil, &ValidationError{Fields: errs}
	}

	propertyID, err := s.reservePropertyID(ctx)
	if err != nil {
		log.Error("failed to allocate property id", err, nil)
		op.to(StateFailed)
		return nil, err
	}

	op.to(StateSettling)
	ref, err := s.settle(ctx, opRegister)
	if err != nil {
		log.Warn("registration settlement failed", map[string]interface{}{
			"property_id": propertyID,
			"error":       err.Error(),
		})
		op.to(StateFailed)
		return nil, err
	}

	op.to(StatePersisting)
	var created *models.Property
	for attempt := 1; ; attempt++ {
		property := &models.Property{
			PropertyID:     propertyID,
			OwnerName:      strings.TrimSpace(form.OwnerName),
			OwnerAddress:   actor.Address,
			NationalID:     form.NationalID,
			VoterID:        form.VoterID,
			Phone:          form.Phone,
			Email:          strings.TrimSpace(form.Email),
			LandDetails:    form.LandDetails(),
			TransactionRef: ref,
			Documents:      s.storeDocuments(ctx, propertyID, form.Documents),
		}

		created, err = s.repo.CreateProperty(ctx, property)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateKey) && attempt < maxPropertyIDAttempts {
			// Lost a race for the ID after reservation; documents follow the new ID.
			log.Warn("property id collision, regenerating", map[string]interface{}{
				"property_id": propertyID,
				"attempt":     attempt,
			})
			propertyID = s.newPropertyID()
			continue
		}

		log.Error("failed to record property", err, map[string]interface{}{
			"property_id": propertyID,
			"tx_hash":     ref.Hash,
			"attempt":     attempt,
		})
		op.to(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	op.to(StateComplete)
	span.SetAttributes(attribute.String("property.id", created.PropertyID))
	log.Info("property registered", map[string]interface{}{
		"property_id":  created.PropertyID,
		"tx_hash":      created.TransactionRef.Hash,
		"block_number": created.TransactionRef.BlockNumber,
		"documents":    len(created.Documents),
	})

	return s.registrationReceipt(created), nil
}

// reservePropertyID draws IDs until one is not held by an existing property.
func (s *registryService) reservePropertyID(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxPropertyIDAttempts; attempt++ {
		candidate := s.newPropertyID()
		existing, err := s.repo.GetPropertyByID(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		if existing == nil {
			return candidate, nil
		}
		s.log.Debug("generated property id already taken", map[string]interface{}{
			"property_id": candidate,
			"attempt":     attempt,
		})
	}
	return "", fmt.Errorf("%w: no free property id after %d attempts", ErrPersistenceFailed, maxPropertyIDAttempts)
}

func (s *registryService) TransferProperty(ctx context.Context, actor identity.Identity, form models.TransferForm) (*models.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "registry.TransferProperty")
	defer span.End()
	op := newOperation(opTransfer, s.log, s.metrics, span)

	if !actor.Connected {
		op.to(StateRejected)
		return nil, ErrNotConnected
	}

	op.to(StateValidating)
	if errs := validation.ValidateTransfer(form); len(errs) > 0 {
		s.log.Info("transfer rejected by validation", map[string]interface{}{
			"actor":  actor.Address,
			"fields": errs,
		})
		op.to(StateRejected)
		return nil, &ValidationError{Fields: errs}
	}

	propertyID := strings.TrimSpace(form.PropertyID)
	seller, buyer := form.Seller(), form.Buyer()
	span.SetAttributes(attribute.String("property.id", propertyID))
	log := s.log.With(map[string]interface{}{
		"property_id": propertyID,
		"actor":       actor.Address,
	})

	unlock, err := s.locker.Lock(ctx, propertyID)
	if err != nil {
		log.Error("failed to acquire property lock", err, nil)
		op.to(StateFailed)
		return nil, fmt.Errorf("%w: acquire lock: %v", ErrPersistenceFailed, err)
	}
	defer unlock()

	// Authoritative read under the lock; the revision guards the owner update.
	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		log.Error("failed to load property", err, nil)
		op.to(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if property == nil {
		log.Info("transfer of unknown property", nil)
		op.to(StateRejected)
		return nil, ErrPropertyNotFound
	}
	if !models.SameAddress(actor.Address, property.OwnerAddress) || !models.SameAddress(seller.Address, property.OwnerAddress) {
		log.Warn("transfer attempted by non-owner", map[string]interface{}{
			"seller": seller.Address,
			"owner":  property.OwnerAddress,
		})
		op.to(StateRejected)
		return nil, ErrUnauthorized
	}

	op.to(StateSettling)
	ref, err := s.settle(ctx, opTransfer)
	if err != nil {
		log.Warn("transfer settlement failed", map[string]interface{}{"error": err.Error()})
		op.to(StateFailed)
		return nil, err
	}

	op.to(StatePersisting)
	transferID := uuid.NewString()
	var docs models.DocumentURLs
	if form.DocumentBearing() {
		docs = s.storeDocuments(ctx, propertyID+"/transfers/"+transferID, form.Documents)
	}

	transfer, err := s.repo.CreateTransfer(ctx, &models.Transfer{
		ID:             transferID,
		PropertyID:     propertyID,
		Seller:         seller,
		Buyer:          buyer,
		TransactionRef: ref,
		Documents:      docs,
	})
	if err != nil {
		log.Error("failed to record transfer", err, map[string]interface{}{"tx_hash": ref.Hash})
		op.to(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if err := s.repo.UpdateOwner(ctx, propertyID, buyer.Name, buyer.Address, property.Revision); err != nil {
		// The transfer row exists but ownership did not move. No compensation is attempted.
		log.Error("reconciliation required: transfer recorded without ownership update", err, map[string]interface{}{
			"transfer_id":       transfer.ID,
			"tx_hash":           ref.Hash,
			"block_number":      ref.BlockNumber,
			"seller":            seller.Address,
			"buyer":             buyer.Address,
			"expected_revision": property.Revision,
		})
		s.metrics.IncReconciliationAlarm()
		span.SetStatus(codes.Error, "reconciliation required")
		op.to(StateFailed)
		return nil, fmt.Errorf("%w: transfer %s of %s: %v", ErrReconciliationRequired, transfer.ID, propertyID, err)
	}

	op.to(StateComplete)
	log.Info("property transferred", map[string]interface{}{
		"transfer_id": transfer.ID,
		"buyer":       buyer.Address,
		"tx_hash":     ref.Hash,
	})

	property.OwnerName = buyer.Name
	property.OwnerAddress = buyer.Address
	property.Revision++
	return s.transferReceipt(property, transfer), nil
}

// settle runs one bounded settlement and maps its failure to a service error.
func (s *registryService) settle(ctx context.Context, operation string) (models.TransactionRef, error) {
	ctx, span := s.tracer.Start(ctx, "registry.settle")
	defer span.End()

	start := s.now()
	ref, err := s.settler.Settle(ctx)
	s.metrics.ObserveSettlement(operation, s.now().Sub(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement failed")
		if errors.Is(err, settlement.ErrSettlementTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return models.TransactionRef{}, fmt.Errorf("%w: %v", ErrSettlementTimeout, err)
		}
		return models.TransactionRef{}, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	span.SetAttributes(
		attribute.String("tx.hash", ref.Hash),
		attribute.Int64("tx.block", ref.BlockNumber),
	)
	return ref, nil
}

func (s *registryService) storeDocuments(ctx context.Context, scope string, files map[models.DocumentType]*models.DocumentFile) models.DocumentURLs {
	if s.documents == nil || len(files) == 0 {
		return models.DocumentURLs{}
	}
	return s.documents.StoreAll(ctx, scope, files)
}

func (s *registryService) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	property, err := s.repo.GetPropertyByID(ctx, strings.TrimSpace(propertyID))
	if err != nil {
		s.log.Error("Failed to query property", err, map[string]interface{}{"property_id": propertyID})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}
	return property, nil
}

func (s *registryService) ListProperties(ctx context.Context) ([]models.Property, error) {
	properties, err := s.repo.ListProperties(ctx)
	if err != nil {
		s.log.Error("Failed to list properties", err, nil)
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (s *registryService) ListPropertiesByOwner(ctx context.Context, ownerAddress string) ([]models.Property, error) {
	properties, err := s.repo.ListPropertiesByOwner(ctx, strings.TrimSpace(ownerAddress))
	if err != nil {
		s.log.Error("Failed to list properties by owner", err, map[string]interface{}{"owner": ownerAddress})
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (s *registryService) ListTransfers(ctx context.Context) ([]models.Transfer, error) {
	transfers, err := s.repo.ListTransfers(ctx)
	if err != nil {
		s.log.Error("Failed to list transfers", err, nil)
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

func (s *registryService) ListTransfersByProperty(ctx context.Context, propertyID string) ([]models.Transfer, error) {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	transfers, err := s.repo.ListTransfersByProperty(ctx, strings.TrimSpace(propertyID))
	if err != nil {
		s.log.Error("Failed to list property transfers", err, map[string]interface{}{"property_id": propertyID})
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}
