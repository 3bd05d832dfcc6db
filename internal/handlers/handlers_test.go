package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kassa/internal/booking"
	"kassa/internal/config"
	apperrors "kassa/internal/errors"
	"kassa/internal/external"
	"kassa/internal/models"
	"kassa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	tickets map[int64]*models.Ticket
	txns    map[int64]*models.TicketTransaction
	holdErr error
}

func (s *stubStore) GetByID(_ context.Context, id int64) (*models.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *stubStore) Hold(_ context.Context, id int64, until time.Time) error {
	if s.holdErr != nil {
		return s.holdErr
	}
	s.tickets[id].BookedUntil = &until
	s.tickets[id].State = models.StateHeld
	return nil
}

func (s *stubStore) SetAwaitingPayment(_ context.Context, id int64, paymentID string) error {
	s.tickets[id].State = models.StateAwaitingConfirmation
	s.tickets[id].PendingPaymentID = &paymentID
	return nil
}

func (s *stubStore) ClearHold(_ context.Context, id int64) error {
	if t, ok := s.tickets[id]; ok {
		t.BookedUntil = nil
		if !t.Sold {
			t.State = models.StateAvailable
		}
	}
	return nil
}

func (s *stubStore) FinalizeSale(_ context.Context, txn *models.TicketTransaction) error {
	t, ok := s.tickets[txn.TicketID]
	if !ok || t.Sold {
		return apperrors.ErrTicketAlreadySold
	}
	t.Sold = true
	t.State = models.StateSold
	txn.ID = int64(len(s.txns) + 1)
	s.txns[txn.ID] = txn
	return nil
}

func (s *stubStore) ReleaseSale(_ context.Context, id int64) error {
	if t, ok := s.tickets[id]; ok {
		t.Sold = false
		t.State = models.StateAvailable
	}
	return nil
}

func (s *stubStore) GetTxn(_ context.Context, id int64) (*models.TicketTransaction, error) {
	txn, ok := s.txns[id]
	if !ok {
		return nil, nil
	}
	return txn, nil
}

func (s *stubStore) MarkReturned(_ context.Context, id int64) error {
	txn, ok := s.txns[id]
	if !ok || txn.IsReturned {
		return apperrors.ErrAlreadyReturned
	}
	txn.IsReturned = true
	return nil
}

func (s *stubStore) GetByUserName(_ context.Context, username string) (*models.User, error) {
	if username != "alice" {
		return nil, nil
	}
	return &models.User{UserID: 10, Username: "alice", IsActive: true}, nil
}

type stubLedger struct{ s *stubStore }

func (l stubLedger) GetByID(ctx context.Context, id int64) (*models.TicketTransaction, error) {
	return l.s.GetTxn(ctx, id)
}
func (l stubLedger) MarkReturned(ctx context.Context, id int64) error {
	return l.s.MarkReturned(ctx, id)
}

type stubGateway struct {
	processErr error
	confirmErr error
}

func (g *stubGateway) ProcessPayment(context.Context, external.ProcessPaymentRequest) (*external.ProcessPaymentResponse, error) {
	if g.processErr != nil {
		return nil, g.processErr
	}
	return &external.ProcessPaymentResponse{TransactionID: "999", ConfirmationCode: "ABC", Status: "PROCESSED"}, nil
}
func (g *stubGateway) ConfirmPayment(context.Context, string, string) error { return g.confirmErr }
func (g *stubGateway) CancelPayment(context.Context, string) error          { return nil }
func (g *stubGateway) ReturnPayment(context.Context, string) error          { return nil }

type testHold struct{}

func (testHold) HoldDuration() time.Duration { return 15 * time.Minute }

func setupRouter(store *stubStore, gateway *stubGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)

	engine := booking.NewEngine(testHold{}, store)
	purchases := service.NewPurchaseService(
		store, stubLedger{s: store}, store, gateway, engine, nil, nil, config.PurchaseConfig{})
	h := NewHandlers(&service.Services{Purchases: purchases, Booking: engine})

	router := gin.New()
	api := router.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("username", "alice")
		c.Next()
	})
	api.POST("/purchases", h.ProcessPurchase)
	api.POST("/purchases/confirm", h.ConfirmPurchase)
	api.POST("/purchases/cancel", h.CancelPurchase)
	api.POST("/purchases/return", h.ReturnPurchase)
	api.GET("/tickets/:id/price", h.GetTicketPrice)
	api.GET("/tickets/:id/availability", h.GetTicketAvailability)
	return router
}

func newStubStore() *stubStore {
	return &stubStore{
		tickets: map[int64]*models.Ticket{
			1: {
				ID:         1,
				Price:      decimal.RequireFromString("50"),
				FeePercent: decimal.RequireFromString("20"),
				Currency:   "USD",
				State:      models.StateAvailable,
			},
		},
		txns: map[int64]*models.TicketTransaction{},
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessPurchaseHandler(t *testing.T) {
	store := newStubStore()
	router := setupRouter(store, &stubGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/purchases",
		models.PurchaseRequest{TicketID: 1, CardID: "card-1"})

	require.Equal(t, http.StatusCreated, w.Code)

	var conf models.PaymentConfirmation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conf))
	assert.Equal(t, int64(1), conf.TicketID)
	assert.Equal(t, "999", conf.TransactionID)
	assert.Equal(t, "ABC", conf.ConfirmationCode)
	assert.True(t, conf.TotalAmount.Equal(decimal.RequireFromString("60")))
}

func TestProcessPurchaseHandlerBadBody(t *testing.T) {
	router := setupRouter(newStubStore(), &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/purchases", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessPurchaseHandlerNotFound(t *testing.T) {
	router := setupRouter(newStubStore(), &stubGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/purchases",
		models.PurchaseRequest{TicketID: 404, CardID: "card-1"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessPurchaseHandlerConflict(t *testing.T) {
	store := newStubStore()
	store.tickets[1].Sold = true
	router := setupRouter(store, &stubGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/purchases",
		models.PurchaseRequest{TicketID: 1, CardID: "card-1"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProcessPurchaseHandlerGatewayDown(t *testing.T) {
	router := setupRouter(newStubStore(), &stubGateway{
		processErr: &apperrors.GatewayError{Operation: "process", StatusCode: 503, Status: "FAILED"},
	})

	w := doJSON(t, router, http.MethodPost, "/api/purchases",
		models.PurchaseRequest{TicketID: 1, CardID: "card-1"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestConfirmPurchaseHandler(t *testing.T) {
	store := newStubStore()
	router := setupRouter(store, &stubGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/purchases/confirm",
		models.ConfirmPurchaseRequest{TicketID: 1, TransactionID: "999", ConfirmationCode: "ABC"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.tickets[1].Sold)
}

func TestConfirmPurchaseHandlerDeclined(t *testing.T) {
	store := newStubStore()
	router := setupRouter(store, &stubGateway{
		confirmErr: &apperrors.GatewayError{Operation: "confirm", StatusCode: 409, Status: "DECLINED"},
	})

	w := doJSON(t, router, http.MethodPost, "/api/purchases/confirm",
		models.ConfirmPurchaseRequest{TicketID: 1, TransactionID: "999", ConfirmationCode: "BAD"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, store.tickets[1].Sold)
}

func TestConfirmPurchaseHandlerUnauthorized(t *testing.T) {
	store := newStubStore()
	gin.SetMode(gin.TestMode)

	engine := booking.NewEngine(testHold{}, store)
	purchases := service.NewPurchaseService(
		store, stubLedger{s: store}, store, &stubGateway{}, engine, nil, nil, config.PurchaseConfig{})
	h := NewHandlers(&service.Services{Purchases: purchases, Booking: engine})

	// Маршрут без аутентификации
	router := gin.New()
	router.POST("/api/purchases/confirm", h.ConfirmPurchase)

	w := doJSON(t, router, http.MethodPost, "/api/purchases/confirm",
		models.ConfirmPurchaseRequest{TicketID: 1, TransactionID: "999", ConfirmationCode: "ABC"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelPurchaseHandler(t *testing.T) {
	store := newStubStore()
	router := setupRouter(store, &stubGateway{})

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/purchases",
		models.PurchaseRequest{TicketID: 1, CardID: "card-1"}).Code)

	w := doJSON(t, router, http.MethodPost, "/api/purchases/cancel",
		models.CancelPurchaseRequest{TicketID: 1, TransactionID: "999"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, store.tickets[1].BookedUntil)
}

func TestReturnPurchaseHandler(t *testing.T) {
	store := newStubStore()
	router := setupRouter(store, &stubGateway{})

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/purchases",
		models.PurchaseRequest{TicketID: 1, CardID: "card-1"}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/purchases/confirm",
		models.ConfirmPurchaseRequest{TicketID: 1, TransactionID: "999", ConfirmationCode: "ABC"}).Code)

	w := doJSON(t, router, http.MethodPost, "/api/purchases/return",
		models.ReturnPurchaseRequest{TransactionID: 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.tickets[1].Sold)

	// Повторный возврат по той же транзакции
	w = doJSON(t, router, http.MethodPost, "/api/purchases/return",
		models.ReturnPurchaseRequest{TransactionID: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReturnPurchaseHandlerUnknownTransaction(t *testing.T) {
	router := setupRouter(newStubStore(), &stubGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/purchases/return",
		models.ReturnPurchaseRequest{TransactionID: 404})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTicketPriceHandler(t *testing.T) {
	router := setupRouter(newStubStore(), &stubGateway{})

	w := doJSON(t, router, http.MethodGet, "/api/tickets/1/price", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var price models.PriceInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &price))
	assert.True(t, price.TotalAmount.Equal(decimal.RequireFromString("60")))
	assert.True(t, price.BookingAmount.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "USD", price.Currency)
}

func TestGetTicketPriceHandlerBadID(t *testing.T) {
	router := setupRouter(newStubStore(), &stubGateway{})

	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, router, http.MethodGet, "/api/tickets/abc/price", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		doJSON(t, router, http.MethodGet, "/api/tickets/77/price", nil).Code)
}

func TestGetTicketAvailabilityHandler(t *testing.T) {
	store := newStubStore()
	router := setupRouter(store, &stubGateway{})

	w := doJSON(t, router, http.MethodGet, "/api/tickets/1/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Available)

	store.tickets[1].Sold = true
	w = doJSON(t, router, http.MethodGet, "/api/tickets/1/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
}
