package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"kassa/internal/models"
)

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// NewTestClient creates a new test client
func NewTestClient(baseURL, username, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ProcessPurchase holds a ticket and initiates its payment
func (c *TestClient) ProcessPurchase(t *testing.T, ticketID int64, cardID string) *models.PaymentConfirmation {
	req := models.PurchaseRequest{
		TicketID: ticketID,
		CardID:   cardID,
	}

	resp := c.makeRequest(t, "POST", "/api/purchases", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var confirmation models.PaymentConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
		t.Fatalf("Failed to decode purchase response: %v", err)
	}

	return &confirmation
}

// TryProcessPurchase is like ProcessPurchase but returns the status code
// instead of failing on non-201
func (c *TestClient) TryProcessPurchase(t *testing.T, ticketID int64, cardID string) int {
	req := models.PurchaseRequest{
		TicketID: ticketID,
		CardID:   cardID,
	}

	resp := c.makeRequest(t, "POST", "/api/purchases", req)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

// ConfirmPurchase confirms the payment and finalizes the sale
func (c *TestClient) ConfirmPurchase(t *testing.T, confirmation *models.PaymentConfirmation) {
	req := models.ConfirmPurchaseRequest{
		TicketID:         confirmation.TicketID,
		TransactionID:    confirmation.TransactionID,
		ConfirmationCode: confirmation.ConfirmationCode,
	}

	resp := c.makeRequest(t, "POST", "/api/purchases/confirm", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// CancelPurchase releases the hold and cancels the payment
func (c *TestClient) CancelPurchase(t *testing.T, ticketID int64, transactionID string) {
	req := models.CancelPurchaseRequest{
		TicketID:      ticketID,
		TransactionID: transactionID,
	}

	resp := c.makeRequest(t, "POST", "/api/purchases/cancel", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// ReturnPurchase refunds a completed sale
func (c *TestClient) ReturnPurchase(t *testing.T, transactionID int64) {
	req := models.ReturnPurchaseRequest{
		TransactionID: transactionID,
	}

	resp := c.makeRequest(t, "POST", "/api/purchases/return", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// GetTicketPrice fetches the ticket's full price breakdown
func (c *TestClient) GetTicketPrice(t *testing.T, ticketID int64) *models.PriceInfo {
	path := fmt.Sprintf("/api/tickets/%d/price", ticketID)
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var price models.PriceInfo
	if err := json.NewDecoder(resp.Body).Decode(&price); err != nil {
		t.Fatalf("Failed to decode price response: %v", err)
	}

	return &price
}

// GetTicketAvailability reports whether the ticket can be bought
func (c *TestClient) GetTicketAvailability(t *testing.T, ticketID int64) bool {
	path := fmt.Sprintf("/api/tickets/%d/availability", ticketID)
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var availability models.AvailabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&availability); err != nil {
		t.Fatalf("Failed to decode availability response: %v", err)
	}

	return availability.Available
}

// HealthCheck checks if the API is healthy
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}

// IsReachable reports whether the API answers its health endpoint
func (c *TestClient) IsReachable() bool {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
