package services

import (
	"github.com/stwalsh4118/deedchain/internal/models"
	"github.com/stwalsh4118/deedchain/internal/settlement"
)

func (s *registryService) registrationReceipt(p *models.Property) *models.Receipt {
	return &models.Receipt{
		Type:       models.ReceiptRegistration,
		PropertyID: p.PropertyID,
		Owner: &models.Party{
			Name:    p.OwnerName,
			Address: p.OwnerAddress,
			Phone:   p.Phone,
			Email:   p.Email,
		},
		LandDetails:    p.LandDetails,
		TransactionRef: p.TransactionRef,
		ExplorerURL:    settlement.ExplorerURL(s.explorerHost, p.TransactionRef.Hash),
		Documents:      p.Documents.Clone(),
		IssuedAt:       s.now().UTC(),
	}
}

func (s *registryService) transferReceipt(p *models.Property, t *models.Transfer) *models.Receipt {
	seller, buyer := t.Seller, t.Buyer
	return &models.Receipt{
		Type:           models.ReceiptTransfer,
		PropertyID:     p.PropertyID,
		TransferID:     t.ID,
		Seller:         &seller,
		Buyer:          &buyer,
		LandDetails:    p.LandDetails,
		TransactionRef: t.TransactionRef,
		ExplorerURL:    settlement.ExplorerURL(s.explorerHost, t.TransactionRef.Hash),
		Documents:      t.Documents.Clone(),
		IssuedAt:       s.now().UTC(),
	}
}
