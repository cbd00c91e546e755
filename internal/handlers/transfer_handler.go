package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/deedchain/internal/errors"
	"github.com/stwalsh4118/deedchain/internal/middleware"
	"github.com/stwalsh4118/deedchain/internal/models"
	"github.com/stwalsh4118/deedchain/internal/services"
)

// TransferHandler handles ownership transfer requests.
type TransferHandler struct {
	service services.RegistryService
}

// NewTransferHandler creates a new TransferHandler instance.
func NewTransferHandler(service services.RegistryService) *TransferHandler {
	return &TransferHandler{service: service}
}

// TransfersResponse lists transfers, most recent first.
type TransfersResponse struct {
	Transfers []models.Transfer `json:"transfers"`
	Count     int               `json:"count"`
}

// Create handles POST /api/v1/transfers.
// A JSON body, or a multipart form without files, is a plain transfer. A
// multipart form carrying any transfer document is the document-bearing
// variant and must carry all of them.
func (h *TransferHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)
	limitBody(c)

	var form models.TransferForm
	if err := c.ShouldBind(&form); err != nil {
		apierrors.BadRequest(c, "Invalid transfer request", map[string]interface{}{"reason": err.Error()})
		return
	}

	if isMultipart(c) {
		files, err := readDocuments(c, models.TransferDocuments)
		if err != nil {
			apierrors.BadRequest(c, "Invalid document upload", map[string]interface{}{"reason": err.Error()})
			return
		}
		if len(files) > 0 {
			form.Documents = files
		}
	}

	if log != nil {
		log.Info("Processing transfer request", map[string]interface{}{
			"property_id":      form.PropertyID,
			"document_bearing": form.DocumentBearing(),
		})
	}

	ctx := context.WithoutCancel(c.Request.Context())
	receipt, err := h.service.TransferProperty(ctx, middleware.GetIdentity(c), form)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReceiptResponse{Receipt: receipt})
}

// List handles GET /api/v1/transfers.
func (h *TransferHandler) List(c *gin.Context) {
	transfers, err := h.service.ListTransfers(c.Request.Context())
	if err != nil {
		renderServiceError(c, err)
		return
	}

	renderTransfers(c, transfers)
}

func renderTransfers(c *gin.Context, transfers []models.Transfer) {
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	c.JSON(http.StatusOK, TransfersResponse{Transfers: transfers, Count: len(transfers)})
}
