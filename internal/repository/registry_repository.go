package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/deedchain/internal/database"
	"github.com/stwalsh4118/deedchain/internal/models"
)

// RegistryRepository is the system of record for properties and transfers.
type RegistryRepository interface {
	// CreateProperty inserts a new property with revision 1.
	// Returns ErrDuplicateKey if the property ID is already taken.
	CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error)

	// GetPropertyByID returns nil, nil if no property has the given ID.
	GetPropertyByID(ctx context.Context, propertyID string) (*models.Property, error)

	// ListProperties returns every property, newest first.
	ListProperties(ctx context.Context) ([]models.Property, error)

	// ListPropertiesByOwner returns the properties currently owned by the
	// given wallet, newest first. Addresses match case-insensitively.
	ListPropertiesByOwner(ctx context.Context, ownerAddress string) ([]models.Property, error)

	// UpdateOwner replaces the owner of a property if its revision still
	// equals expectedRevision, and bumps the revision.
	// Returns ErrNotFound or ErrRevisionConflict.
	UpdateOwner(ctx context.Context, propertyID, ownerName, ownerAddress string, expectedRevision int64) error

	// CreateTransfer records an ownership change.
	// Returns ErrNotFound if the property does not exist.
	CreateTransfer(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error)

	// ListTransfers returns every transfer, newest first.
	ListTransfers(ctx context.Context) ([]models.Transfer, error)

	// ListTransfersByProperty returns the transfer history of one property, newest first.
	ListTransfersByProperty(ctx context.Context, propertyID string) ([]models.Transfer, error)
}

// propertyDocumentColumns pairs each registration document with its URL column.
var propertyDocumentColumns = []struct {
	doc    models.DocumentType
	column string
}{
	{models.DocNationalIDCard, "national_id_card_url"},
	{models.DocVoterIDCard, "voter_id_card_url"},
	{models.DocPANCard, "pan_card_url"},
	{models.DocSaleDeed, "sale_deed_url"},
	{models.DocEncumbranceCertificate, "encumbrance_certificate_url"},
	{models.DocPropertyTaxReceipt, "property_tax_receipt_url"},
}

// transferDocumentColumns pairs each transfer document with its URL column.
var transferDocumentColumns = []struct {
	doc    models.DocumentType
	column string
}{
	{models.DocSellerIDProof, "seller_id_proof_url"},
	{models.DocBuyerIDProof, "buyer_id_proof_url"},
	{models.DocSaleDeed, "sale_deed_url"},
	{models.DocEncumbranceCertificate, "encumbrance_certificate_url"},
	{models.DocPropertyTaxReceipt, "property_tax_receipt_url"},
	{models.DocNoObjectionCertificate, "no_objection_certificate_url"},
	{models.DocMutationApplication, "mutation_application_url"},
}

const propertyColumns = `
	id,
	property_id,
	owner_name,
	owner_wallet,
	national_id,
	voter_id,
	phone,
	email,
	land_address,
	land_area,
	survey_number,
	district,
	state,
	transaction_hash,
	block_number,
	revision,
	national_id_card_url,
	voter_id_card_url,
	pan_card_url,
	sale_deed_url,
	encumbrance_certificate_url,
	property_tax_receipt_url,
	created_at,
	updated_at`

const transferColumns = `
	id,
	property_id,
	seller_name,
	seller_wallet,
	seller_phone,
	seller_email,
	buyer_name,
	buyer_wallet,
	buyer_phone,
	buyer_email,
	transaction_hash,
	block_number,
	seller_id_proof_url,
	buyer_id_proof_url,
	sale_deed_url,
	encumbrance_certificate_url,
	property_tax_receipt_url,
	no_objection_certificate_url,
	mutation_application_url,
	created_at`

// registryRepository is the PostgreSQL implementation of RegistryRepository.
type registryRepository struct {
	db *database.Database
}

// NewRegistryRepository creates a PostgreSQL-backed RegistryRepository.
func NewRegistryRepository(db *database.Database) RegistryRepository {
	return &registryRepository{
		db: db,
	}
}

func (r *registryRepository) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	p := property.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Revision = 1

	query := `
		INSERT INTO properties (` + propertyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, now(), now())
		RETURNING created_at, updated_at
	`

	args := []any{
		p.ID,
		p.PropertyID,
		p.OwnerName,
		p.OwnerAddress,
		p.NationalID,
		p.VoterID,
		p.Phone,
		p.Email,
		p.LandDetails.Address,
		p.LandDetails.Area,
		p.LandDetails.SurveyNumber,
		p.LandDetails.District,
		p.LandDetails.State,
		p.TransactionRef.Hash,
		p.TransactionRef.BlockNumber,
		p.Revision,
	}
	for _, dc := range propertyDocumentColumns {
		args = append(args, p.Documents.Ptr(dc.doc))
	}

	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&p.RegistrationDate, &p.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, fmt.Errorf("property %s: %w", p.PropertyID, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to insert property %s: %w", p.PropertyID, err)
	}

	return &p, nil
}

func (r *registryRepository) GetPropertyByID(ctx context.Context, propertyID string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE property_id = $1`

	property, err := scanProperty(r.db.Pool.QueryRow(ctx, query, propertyID))
	if err != nil {
		// Handle no rows found - this is not an error at the repository level
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", propertyID, err)
	}

	return property, nil
}

func (r *registryRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY created_at DESC, seq DESC`
	return r.queryProperties(ctx, query)
}

func (r *registryRepository) ListPropertiesByOwner(ctx context.Context, ownerAddress string) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE lower(owner_wallet) = lower($1)
		ORDER BY created_at DESC, seq DESC`
	return r.queryProperties(ctx, query, strings.TrimSpace(ownerAddress))
}

func (r *registryRepository) queryProperties(ctx context.Context, query string, args ...any) ([]models.Property, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return properties, nil
}

func (r *registryRepository) UpdateOwner(ctx context.Context, propertyID, ownerName, ownerAddress string, expectedRevision int64) error {
	query := `
		UPDATE properties
		SET owner_name = $2, owner_wallet = $3, revision = revision + 1, updated_at = now()
		WHERE property_id = $1 AND revision = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query, propertyID, ownerName, ownerAddress, expectedRevision)
	if err != nil {
		return fmt.Errorf("failed to update owner of %s: %w", propertyID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing matched: either the property is gone or someone else won the race.
	var exists bool
	err = r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE property_id = $1)`, propertyID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check property %s: %w", propertyID, err)
	}
	if !exists {
		return fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
	}
	return fmt.Errorf("property %s at revision %d: %w", propertyID, expectedRevision, ErrRevisionConflict)
}

func (r *registryRepository) CreateTransfer(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	t := transfer.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, now())
		RETURNING created_at
	`

	args := []any{
		t.ID,
		t.PropertyID,
		t.Seller.Name,
		t.Seller.Address,
		t.Seller.Phone,
		t.Seller.Email,
		t.Buyer.Name,
		t.Buyer.Address,
		t.Buyer.Phone,
		t.Buyer.Email,
		t.TransactionRef.Hash,
		t.TransactionRef.BlockNumber,
	}
	for _, dc := range transferDocumentColumns {
		args = append(args, t.Documents.Ptr(dc.doc))
	}

	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&t.TransferDate); err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, fmt.Errorf("property %s: %w", t.PropertyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to insert transfer for %s: %w", t.PropertyID, err)
	}

	return &t, nil
}

func (r *registryRepository) ListTransfers(ctx context.Context) ([]models.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers ORDER BY created_at DESC, seq DESC`
	return r.queryTransfers(ctx, query)
}

func (r *registryRepository) ListTransfersByProperty(ctx context.Context, propertyID string) ([]models.Transfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM transfers
		WHERE property_id = $1
		ORDER BY created_at DESC, seq DESC`
	return r.queryTransfers(ctx, query, propertyID)
}

func (r *registryRepository) queryTransfers(ctx context.Context, query string, args ...any) ([]models.Transfer, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []models.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer row: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer rows: %w", err)
	}

	return transfers, nil
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	urls := make([]*string, len(propertyDocumentColumns))

	dest := []any{
		&p.ID,
		&p.PropertyID,
		&p.OwnerName,
		&p.OwnerAddress,
		&p.NationalID,
		&p.VoterID,
		&p.Phone,
		&p.Email,
		&p.LandDetails.Address,
		&p.LandDetails.Area,
		&p.LandDetails.SurveyNumber,
		&p.LandDetails.District,
		&p.LandDetails.State,
		&p.TransactionRef.Hash,
		&p.TransactionRef.BlockNumber,
		&p.Revision,
	}
	for i := range urls {
		dest = append(dest, &urls[i])
	}
	dest = append(dest, &p.RegistrationDate, &p.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	p.Documents = models.DocumentURLs{}
	for i, dc := range propertyDocumentColumns {
		if urls[i] != nil {
			p.Documents[dc.doc] = *urls[i]
		}
	}
	return &p, nil
}

func scanTransfer(row pgx.Row) (*models.Transfer, error) {
	var t models.Transfer
	urls := make([]*string, len(transferDocumentColumns))

	dest := []any{
		&t.ID,
		&t.PropertyID,
		&t.Seller.Name,
		&t.Seller.Address,
		&t.Seller.Phone,
		&t.Seller.Email,
		&t.Buyer.Name,
		&t.Buyer.Address,
		&t.Buyer.Phone,
		&t.Buyer.Email,
		&t.TransactionRef.Hash,
		&t.TransactionRef.BlockNumber,
	}
	for i := range urls {
		dest = append(dest, &urls[i])
	}
	dest = append(dest, &t.TransferDate)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	for i, dc := range transferDocumentColumns {
		if urls[i] == nil {
			continue
		}
		if t.Documents == nil {
			t.Documents = models.DocumentURLs{}
		}
		t.Documents[dc.doc] = *urls[i]
	}
	return &t, nil
}
