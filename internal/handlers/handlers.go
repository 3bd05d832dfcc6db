package handlers

import (
	"errors"
	"net/http"

	apperrors "kassa/internal/errors"
	"kassa/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// writeError переводит ошибки ядра в HTTP статусы:
// business rule -> 409, not found -> 404, gateway -> 502,
// integrity -> 500 с пометкой о ручной сверке
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrTicketUnavailable),
		errors.Is(err, apperrors.ErrTicketAlreadySold),
		errors.Is(err, apperrors.ErrAlreadyReturned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrMoneyReturnedTicketMissing):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":                   err.Error(),
			"reconciliation_required": true,
		})

	case apperrors.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
