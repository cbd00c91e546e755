package models

// DocumentType names an identity or ownership document slot.
type DocumentType string

// Documents attached at registration.
const (
	DocNationalIDCard         DocumentType = "nationalIdCard"
	DocVoterIDCard            DocumentType = "voterIdCard"
	DocPANCard                DocumentType = "panCard"
	DocSaleDeed               DocumentType = "saleDeed"
	DocEncumbranceCertificate DocumentType = "encumbranceCertificate"
	DocPropertyTaxReceipt     DocumentType = "propertyTaxReceipt"
)

// Additional documents attached to a document-bearing transfer.
const (
	DocSellerIDProof          DocumentType = "sellerIdProof"
	DocBuyerIDProof           DocumentType = "buyerIdProof"
	DocNoObjectionCertificate DocumentType = "noObjectionCertificate"
	DocMutationApplication    DocumentType = "mutationApplication"
)

// RegistrationDocuments lists the six documents a registration requires.
var RegistrationDocuments = []DocumentType{
	DocNationalIDCard,
	DocVoterIDCard,
	DocPANCard,
	DocSaleDeed,
	DocEncumbranceCertificate,
	DocPropertyTaxReceipt,
}

// TransferDocuments lists the seven documents a document-bearing transfer requires.
var TransferDocuments = []DocumentType{
	DocSellerIDProof,
	DocBuyerIDProof,
	DocSaleDeed,
	DocEncumbranceCertificate,
	DocPropertyTaxReceipt,
	DocNoObjectionCertificate,
	DocMutationApplication,
}

// DocumentFile is an uploaded file as received from the client.
type DocumentFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// DocumentURLs maps a document slot to its public retrieval URL.
// A missing key means the document was not provided or its upload failed.
type DocumentURLs map[DocumentType]string

// Clone returns a copy of the map. A nil map stays nil.
func (d DocumentURLs) Clone() DocumentURLs {
	if d == nil {
		return nil
	}
	out := make(DocumentURLs, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Ptr returns the URL for doc as a nullable column value.
func (d DocumentURLs) Ptr(doc DocumentType) *string {
	url, ok := d[doc]
	if !ok || url == "" {
		return nil
	}
	return &url
}
