package models

import (
	"strings"
	"time"
)

// TransactionRef proves a settlement happened on the ledger.
type TransactionRef struct {
	Hash        string `json:"hash"`
	BlockNumber int64  `json:"blockNumber"`
}

// LandDetails describes the registered parcel. It is immutable after registration.
type LandDetails struct {
	Address      string `json:"address"`
	Area         string `json:"area"`
	SurveyNumber string `json:"surveyNumber"`
	District     string `json:"district"`
	State        string `json:"state"`
}

// Property is the system of record for a registered parcel and its current owner.
// PropertyID is the human-facing business key; ID is the storage primary key.
// Revision increases by one on every ownership change.
type Property struct {
	RegistrationDate time.Time      `json:"registrationDate"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Documents        DocumentURLs   `json:"documents"`
	LandDetails      LandDetails    `json:"landDetails"`
	TransactionRef   TransactionRef `json:"transactionRef"`
	ID               string         `json:"id"`
	PropertyID       string         `json:"propertyId"`
	OwnerName        string         `json:"ownerName"`
	OwnerAddress     string         `json:"ownerAddress"`
	NationalID       string         `json:"nationalId"`
	VoterID          string         `json:"voterId"`
	Phone            string         `json:"phone"`
	Email            string         `json:"email"`
	Revision         int64          `json:"revision"`
}

// Clone returns a deep copy of the property.
func (p Property) Clone() Property {
	p.Documents = p.Documents.Clone()
	return p
}

// SameAddress reports whether two wallet addresses refer to the same account.
// Addresses are compared case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
