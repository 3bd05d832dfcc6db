package models

import "github.com/shopspring/decimal"

// PurchaseRequest - запрос на покупку билета
type PurchaseRequest struct {
	TicketID int64  `json:"ticket_id" binding:"required"`
	CardID   string `json:"card_id" binding:"required"`
}

// PaymentConfirmation - ответ на инициацию покупки; каллер позже подтверждает
// или отменяет платеж этими же идентификаторами
type PaymentConfirmation struct {
	TicketID         int64           `json:"ticket_id"`
	TransactionID    string          `json:"transaction_id"`
	ConfirmationCode string          `json:"confirmation_code"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	BookingAmount    decimal.Decimal `json:"booking_amount"`
	Currency         string          `json:"currency"`
}

// ConfirmPurchaseRequest - запрос на подтверждение платежа
type ConfirmPurchaseRequest struct {
	TicketID         int64  `json:"ticket_id" binding:"required"`
	TransactionID    string `json:"transaction_id" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// CancelPurchaseRequest - запрос на отмену платежа
type CancelPurchaseRequest struct {
	TicketID      int64  `json:"ticket_id" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// ReturnPurchaseRequest - запрос на возврат денег по транзакции
type ReturnPurchaseRequest struct {
	TransactionID int64 `json:"transaction_id" binding:"required"`
}

// AvailabilityResponse - доступность билета для покупки
type AvailabilityResponse struct {
	TicketID  int64 `json:"ticket_id"`
	Available bool  `json:"available"`
}
