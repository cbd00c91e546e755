package models

import "time"

// ReceiptType distinguishes the event a receipt summarises.
type ReceiptType string

const (
	ReceiptRegistration ReceiptType = "registration"
	ReceiptTransfer     ReceiptType = "transfer"
)

// Receipt is a derived, non-persisted summary of a completed registration or transfer.
// Owner is set for registrations; Seller and Buyer for transfers.
type Receipt struct {
	IssuedAt       time.Time      `json:"issuedAt"`
	Owner          *Party         `json:"owner,omitempty"`
	Seller         *Party         `json:"seller,omitempty"`
	Buyer          *Party         `json:"buyer,omitempty"`
	Documents      DocumentURLs   `json:"documents,omitempty"`
	Type           ReceiptType    `json:"type"`
	PropertyID     string         `json:"propertyId"`
	TransferID     string         `json:"transferId,omitempty"`
	ExplorerURL    string         `json:"explorerUrl"`
	LandDetails    LandDetails    `json:"landDetails"`
	TransactionRef TransactionRef `json:"transactionRef"`
}
