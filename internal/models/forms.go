package models

import "strings"

// RegistrationForm is the user-submitted data for registering a new property.
// The owner's wallet address is not part of the form; it comes from the acting identity.
type RegistrationForm struct {
	Documents    map[DocumentType]*DocumentFile `json:"-" form:"-"`
	OwnerName    string                         `json:"ownerName" form:"ownerName" validate:"notblank"`
	NationalID   string                         `json:"nationalId" form:"nationalId" validate:"nationalid"`
	VoterID      string                         `json:"voterId" form:"voterId" validate:"voterid"`
	Phone        string                         `json:"phone" form:"phone" validate:"phone10"`
	Email        string                         `json:"email" form:"email" validate:"contactemail"`
	LandAddress  string                         `json:"landAddress" form:"landAddress" validate:"notblank"`
	LandArea     string                         `json:"landArea" form:"landArea" validate:"notblank"`
	SurveyNumber string                         `json:"surveyNumber" form:"surveyNumber" validate:"notblank"`
	District     string                         `json:"district" form:"district" validate:"notblank"`
	State        string                         `json:"state" form:"state" validate:"notblank"`
}

// LandDetails extracts the parcel description from the form.
func (f RegistrationForm) LandDetails() LandDetails {
	return LandDetails{
		Address:      strings.TrimSpace(f.LandAddress),
		Area:         strings.TrimSpace(f.LandArea),
		SurveyNumber: strings.TrimSpace(f.SurveyNumber),
		District:     strings.TrimSpace(f.District),
		State:        strings.TrimSpace(f.State),
	}
}

// TransferForm is the user-submitted data for transferring an existing property.
// A non-nil Documents map marks the document-bearing variant, which requires
// every entry of TransferDocuments.
type TransferForm struct {
	Documents     map[DocumentType]*DocumentFile `json:"-" form:"-"`
	PropertyID    string                         `json:"propertyId" form:"propertyId" validate:"notblank"`
	SellerName    string                         `json:"sellerName" form:"sellerName" validate:"notblank"`
	SellerAddress string                         `json:"sellerAddress" form:"sellerAddress" validate:"wallet"`
	SellerPhone   string                         `json:"sellerPhone" form:"sellerPhone" validate:"phone10"`
	SellerEmail   string                         `json:"sellerEmail" form:"sellerEmail" validate:"contactemail"`
	BuyerName     string                         `json:"buyerName" form:"buyerName" validate:"notblank"`
	BuyerAddress  string                         `json:"buyerAddress" form:"buyerAddress" validate:"wallet"`
	BuyerPhone    string                         `json:"buyerPhone" form:"buyerPhone" validate:"phone10"`
	BuyerEmail    string                         `json:"buyerEmail" form:"buyerEmail" validate:"contactemail"`
}

// DocumentBearing reports whether the transfer carries its own document set.
func (f TransferForm) DocumentBearing() bool {
	return f.Documents != nil
}

// Seller returns the selling party described by the form.
func (f TransferForm) Seller() Party {
	return Party{
		Name:    strings.TrimSpace(f.SellerName),
		Address: strings.TrimSpace(f.SellerAddress),
		Phone:   f.SellerPhone,
		Email:   strings.TrimSpace(f.SellerEmail),
	}
}

// Buyer returns the buying party described by the form.
func (f TransferForm) Buyer() Party {
	return Party{
		Name:    strings.TrimSpace(f.BuyerName),
		Address: strings.TrimSpace(f.BuyerAddress),
		Phone:   f.BuyerPhone,
		Email:   strings.TrimSpace(f.BuyerEmail),
	}
}
