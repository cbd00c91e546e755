package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/deedchain/internal/errors"
	"github.com/stwalsh4118/deedchain/internal/identity"
	"github.com/stwalsh4118/deedchain/internal/middleware"
	"github.com/stwalsh4118/deedchain/internal/models"
	"github.com/stwalsh4118/deedchain/internal/services"
)

// PropertyHandler handles property registration and lookup requests.
type PropertyHandler struct {
	service services.RegistryService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.RegistryService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// ReceiptResponse wraps the receipt of a completed registration or transfer.
type ReceiptResponse struct {
	Receipt *models.Receipt `json:"receipt"`
}

// PropertyResponse wraps a single property.
type PropertyResponse struct {
	Property *models.Property `json:"property"`
}

// PropertiesResponse lists properties, newest registration first.
type PropertiesResponse struct {
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

// ListPropertiesRequest holds the optional owner filter.
type ListPropertiesRequest struct {
	Owner string `form:"owner"`
}

// Register handles POST /api/v1/properties.
// The body is a multipart form carrying the owner and land fields plus one
// file per registration document. The acting wallet becomes the owner.
func (h *PropertyHandler) Register(c *gin.Context) {
	log := middleware.GetLogger(c)
	limitBody(c)

	var form models.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		apierrors.BadRequest(c, "Invalid registration form", map[string]interface{}{"reason": err.Error()})
		return
	}

	files, err := readDocuments(c, models.RegistrationDocuments)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document upload", map[string]interface{}{"reason": err.Error()})
		return
	}
	form.Documents = files

	if log != nil {
		log.Info("Processing registration request", map[string]interface{}{
			"documents": len(files),
			"district":  form.District,
		})
	}

	// A registration that has settled must still be recorded if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	receipt, err := h.service.RegisterProperty(ctx, middleware.GetIdentity(c), form)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReceiptResponse{Receipt: receipt})
}

// List handles GET /api/v1/properties, optionally filtered by ?owner=<wallet>.
func (h *PropertyHandler) List(c *gin.Context) {
	var req ListPropertiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	var (
		properties []models.Property
		err        error
	)
	if req.Owner != "" {
		if !identity.IsAddress(req.Owner) {
			apierrors.BadRequest(c, "owner must be a wallet address", map[string]interface{}{"owner": req.Owner})
			return
		}
		properties, err = h.service.ListPropertiesByOwner(c.Request.Context(), req.Owner)
	} else {
		properties, err = h.service.ListProperties(c.Request.Context())
	}
	if err != nil {
		renderServiceError(c, err)
		return
	}

	if properties == nil {
		properties = []models.Property{}
	}
	c.JSON(http.StatusOK, PropertiesResponse{Properties: properties, Count: len(properties)})
}

// Get handles GET /api/v1/properties/:propertyId.
func (h *PropertyHandler) Get(c *gin.Context) {
	property, err := h.service.GetProperty(c.Request.Context(), c.Param("propertyId"))
	if err != nil {
		renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{Property: property})
}

// Transfers handles GET /api/v1/properties/:propertyId/transfers.
func (h *PropertyHandler) Transfers(c *gin.Context) {
	transfers, err := h.service.ListTransfersByProperty(c.Request.Context(), c.Param("propertyId"))
	if err != nil {
		renderServiceError(c, err)
		return
	}

	renderTransfers(c, transfers)
}
