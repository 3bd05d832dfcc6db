package handlers

import (
	"log/slog"
	"net/http"

	"kassa/internal/models"

	"github.com/gin-gonic/gin"
)

// ProcessPurchase - POST /api/purchases
// Поставить временную бронь и инициировать платеж
func (h *Handlers) ProcessPurchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirmation, err := h.services.Purchases.ProcessTicketBuying(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to process purchase", "error", err, "ticket_id", req.TicketID)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

// ConfirmPurchase - POST /api/purchases/confirm
// Подтвердить платеж и завершить продажу
func (h *Handlers) ConfirmPurchase(c *gin.Context) {
	var req models.ConfirmPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := c.GetString("username")
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.services.Purchases.ConfirmTicketPayment(c.Request.Context(), username, &req)
	if err != nil {
		slog.Error("Failed to confirm purchase",
			"error", err, "ticket_id", req.TicketID, "payment_id", req.TransactionID)
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// CancelPurchase - POST /api/purchases/cancel
// Снять бронь и отменить платеж
func (h *Handlers) CancelPurchase(c *gin.Context) {
	var req models.CancelPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.services.Purchases.CancelTicketPayment(c.Request.Context(), req.TicketID, req.TransactionID)
	if err != nil {
		slog.Error("Failed to cancel purchase",
			"error", err, "ticket_id", req.TicketID, "payment_id", req.TransactionID)
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// ReturnPurchase - POST /api/purchases/return
// Вернуть деньги по транзакции
func (h *Handlers) ReturnPurchase(c *gin.Context) {
	var req models.ReturnPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.services.Purchases.ReturnMoneyForPurchase(c.Request.Context(), req.TransactionID)
	if err != nil {
		slog.Error("Failed to return money", "error", err, "transaction_id", req.TransactionID)
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
