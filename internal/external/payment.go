package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/metrics"

	"github.com/shopspring/decimal"
)

// PaymentClient talks to the external payment processor. Every operation is
// independently fallible; non-2xx responses carry a {status, message} body
// that is surfaced to the caller unchanged.
type PaymentClient struct {
	baseURL    string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ProcessPaymentRequest struct {
	CardID          string          `json:"cardId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`
	UnreturnableFee decimal.Decimal `json:"unreturnableFee"`
	IdempotencyKey  string          `json:"idempotencyKey,omitempty"`
}

type ProcessPaymentResponse struct {
	TransactionID    string `json:"transactionId"`
	ConfirmationCode string `json:"confirmationCode"`
	Status           string `json:"status"`
}

type ConfirmPaymentRequest struct {
	TransactionID    string `json:"transactionId"`
	ConfirmationCode string `json:"confirmationCode"`
}

type PaymentStatusResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type gatewayErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ProcessPayment initiates a payment for the given card and amounts
func (pc *PaymentClient) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*ProcessPaymentResponse, error) {
	var result ProcessPaymentResponse
	if err := pc.post(ctx, "process", "/payment/process", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ConfirmPayment confirms a previously processed payment
func (pc *PaymentClient) ConfirmPayment(ctx context.Context, transactionID, confirmationCode string) error {
	req := ConfirmPaymentRequest{
		TransactionID:    transactionID,
		ConfirmationCode: confirmationCode,
	}
	return pc.post(ctx, "confirm", "/payment/confirm", req, nil)
}

// CancelPayment cancels a processed but unconfirmed payment
func (pc *PaymentClient) CancelPayment(ctx context.Context, transactionID string) error {
	return pc.post(ctx, "cancel", "/payment/cancel/"+transactionID, nil, nil)
}

// ReturnPayment refunds a confirmed payment
func (pc *PaymentClient) ReturnPayment(ctx context.Context, transactionID string) error {
	return pc.post(ctx, "return", "/payment/return/"+transactionID, nil, nil)
}

// CheckPayment queries the gateway-side state of a payment. Used by the
// reconciliation sweeper for holds that expired without a terminal outcome.
func (pc *PaymentClient) CheckPayment(ctx context.Context, transactionID string) (*PaymentStatusResponse, error) {
	var result PaymentStatusResponse
	if err := pc.post(ctx, "check", "/payment/check/"+transactionID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (pc *PaymentClient) post(ctx context.Context, operation, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := pc.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(operation, "network_error").Inc()
		return fmt.Errorf("payment gateway %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayRequests.WithLabelValues(operation, "error").Inc()
		var errBody gatewayErrorBody
		// The error body is best effort, the status code alone is enough
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &apperrors.GatewayError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     errBody.Status,
			Message:    errBody.Message,
		}
	}

	metrics.GatewayRequests.WithLabelValues(operation, "ok").Inc()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}

	return nil
}
