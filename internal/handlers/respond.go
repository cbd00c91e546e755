package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/deedchain/internal/errors"
	"github.com/stwalsh4118/deedchain/internal/services"
)

// renderServiceError maps a RegistryService error onto the API error envelope.
// Anything unrecognised is a 500 with a generic message; the cause is only logged.
func renderServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationError(c, verr.Fields)
	case errors.Is(err, services.ErrNotConnected):
		apierrors.NotConnected(c)
	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "Property not found")
	case errors.Is(err, services.ErrUnauthorized):
		apierrors.Forbidden(c, "Only the current owner can transfer this property")
	case errors.Is(err, services.ErrSettlementTimeout):
		apierrors.ServiceUnavailable(c, "Ledger settlement timed out, please retry", err)
	case errors.Is(err, services.ErrSettlementFailed):
		apierrors.ServiceUnavailable(c, "Ledger settlement failed, please retry", err)
	case errors.Is(err, services.ErrReconciliationRequired):
		apierrors.InternalServerError(c, "The transfer was settled but could not be fully recorded; it has been flagged for review", err)
	default:
		apierrors.InternalServerError(c, "The registry could not complete this operation", err)
	}
}
