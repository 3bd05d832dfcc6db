package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	apperrors "kassa/internal/errors"
	"kassa/internal/models"

	"github.com/gin-gonic/gin"
)

func ticketIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return 0, false
	}
	return id, true
}

// GetTicketPrice - GET /api/tickets/:id/price
// Посчитать полную стоимость билета со сбором
func (h *Handlers) GetTicketPrice(c *gin.Context) {
	id, ok := ticketIDParam(c)
	if !ok {
		return
	}

	price, err := h.services.Purchases.GetFullTicketPrice(c.Request.Context(), id)
	if err != nil {
		slog.Error("Failed to get ticket price", "error", err, "ticket_id", id)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, price)
}

// GetTicketAvailability - GET /api/tickets/:id/availability
// Проверить, доступен ли билет для покупки
func (h *Handlers) GetTicketAvailability(c *gin.Context) {
	id, ok := ticketIDParam(c)
	if !ok {
		return
	}

	ticket, err := h.services.Purchases.GetTicket(c.Request.Context(), id)
	if err != nil {
		slog.Error("Failed to get ticket", "error", err, "ticket_id", id)
		writeError(c, err)
		return
	}

	available, err := h.services.Purchases.IsTicketAvailableForPurchase(ticket)
	if err != nil {
		writeError(c, apperrors.ErrTicketNotFound)
		return
	}

	c.JSON(http.StatusOK, models.AvailabilityResponse{
		TicketID:  id,
		Available: available,
	})
}
