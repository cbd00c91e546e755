package models

import "time"

// Party is one side of an ownership transfer.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Transfer records one ownership change of a property.
type Transfer struct {
	TransferDate   time.Time      `json:"transferDate"`
	Documents      DocumentURLs   `json:"documents,omitempty"`
	Seller         Party          `json:"seller"`
	Buyer          Party          `json:"buyer"`
	TransactionRef TransactionRef `json:"transactionRef"`
	ID             string         `json:"id"`
	PropertyID     string         `json:"propertyId"`
}

// Clone returns a deep copy of the transfer.
func (t Transfer) Clone() Transfer {
	t.Documents = t.Documents.Clone()
	return t
}
