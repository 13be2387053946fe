package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrichain-os/agrichain/internal/repository"
	"github.com/agrichain-os/agrichain/internal/service/analysis"
	"github.com/agrichain-os/agrichain/internal/service/farm"
	"github.com/agrichain-os/agrichain/internal/service/finance"
	"github.com/agrichain-os/agrichain/internal/service/forecast"
	"github.com/agrichain-os/agrichain/internal/service/inventory"
	"github.com/agrichain-os/agrichain/internal/service/logistics"
	"github.com/agrichain-os/agrichain/pkg/clients/geocode"
)

// respondError maps domain errors onto HTTP statuses. The wrapped error text
// names the entity and the operation that failed, so it is returned as-is.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, analysis.ErrNoData),
		errors.Is(err, forecast.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, geocode.ErrNotFound):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, geocode.ErrUnavailable),
		errors.Is(err, forecast.ErrGeneratorUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, farm.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, logistics.ErrInvalidQuantity),
		errors.Is(err, logistics.ErrInvalidStep),
		errors.Is(err, finance.ErrInvalidPrice):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
