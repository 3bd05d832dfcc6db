package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"kassa/internal/external"
	"kassa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepStore struct {
	expired []models.Ticket
	cleared []int64
}

func (s *sweepStore) GetExpiredHolds(_ context.Context, _ int) ([]models.Ticket, error) {
	return s.expired, nil
}

func (s *sweepStore) ClearHold(_ context.Context, id int64) error {
	s.cleared = append(s.cleared, id)
	return nil
}

type sweepGateway struct {
	status    string
	checkErr  error
	cancelErr error

	checked   []string
	cancelled []string
}

func (g *sweepGateway) CheckPayment(_ context.Context, transactionID string) (*external.PaymentStatusResponse, error) {
	g.checked = append(g.checked, transactionID)
	if g.checkErr != nil {
		return nil, g.checkErr
	}
	return &external.PaymentStatusResponse{TransactionID: transactionID, Status: g.status}, nil
}

func (g *sweepGateway) CancelPayment(_ context.Context, transactionID string) error {
	g.cancelled = append(g.cancelled, transactionID)
	return g.cancelErr
}

type sweepPublisher struct {
	subjects []string
}

func (p *sweepPublisher) Publish(subject string, _ interface{}) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func expiredTicket(id int64, paymentID *string) models.Ticket {
	past := time.Now().UTC().Add(-time.Minute)
	state := models.StateHeld
	if paymentID != nil {
		state = models.StateAwaitingConfirmation
	}
	return models.Ticket{
		ID:               id,
		State:            state,
		BookedUntil:      &past,
		PendingPaymentID: paymentID,
	}
}

func TestReclaimHoldWithoutPayment(t *testing.T) {
	store := &sweepStore{expired: []models.Ticket{expiredTicket(1, nil)}}
	gateway := &sweepGateway{}
	events := &sweepPublisher{}
	job := NewHoldExpirationJob(store, gateway, events, time.Minute)

	job.sweepExpiredHolds(context.Background())

	assert.Equal(t, []int64{1}, store.cleared)
	assert.Empty(t, gateway.checked, "no payment id means nothing to ask the gateway")
	assert.Equal(t, []string{models.EventHoldExpired}, events.subjects)
}

func TestReclaimHoldCancelsDanglingPayment(t *testing.T) {
	payment := "999"
	store := &sweepStore{expired: []models.Ticket{expiredTicket(1, &payment)}}
	gateway := &sweepGateway{status: "PROCESSED"}
	job := NewHoldExpirationJob(store, gateway, nil, time.Minute)

	job.sweepExpiredHolds(context.Background())

	assert.Equal(t, []string{"999"}, gateway.checked)
	assert.Equal(t, []string{"999"}, gateway.cancelled)
	assert.Equal(t, []int64{1}, store.cleared)
}

func TestReclaimHoldKeepsConfirmedPayment(t *testing.T) {
	payment := "999"
	store := &sweepStore{expired: []models.Ticket{expiredTicket(1, &payment)}}
	gateway := &sweepGateway{status: "CONFIRMED"}
	events := &sweepPublisher{}
	job := NewHoldExpirationJob(store, gateway, events, time.Minute)

	job.sweepExpiredHolds(context.Background())

	assert.Empty(t, gateway.cancelled, "captured money must not be cancelled")
	assert.Empty(t, store.cleared, "the hold stays until someone reconciles it")
	assert.Empty(t, events.subjects)
}

func TestReclaimHoldLeavesTicketWhenCheckFails(t *testing.T) {
	payment := "999"
	store := &sweepStore{expired: []models.Ticket{expiredTicket(1, &payment)}}
	gateway := &sweepGateway{checkErr: errors.New("gateway timeout")}
	job := NewHoldExpirationJob(store, gateway, nil, time.Minute)

	job.sweepExpiredHolds(context.Background())

	assert.Empty(t, store.cleared, "an unknown gateway state waits for the next sweep")
	assert.Empty(t, gateway.cancelled)
}

func TestReclaimHoldLeavesTicketWhenCancelFails(t *testing.T) {
	payment := "999"
	store := &sweepStore{expired: []models.Ticket{expiredTicket(1, &payment)}}
	gateway := &sweepGateway{status: "PROCESSED", cancelErr: errors.New("gateway down")}
	job := NewHoldExpirationJob(store, gateway, nil, time.Minute)

	job.sweepExpiredHolds(context.Background())

	assert.Empty(t, store.cleared)
}

func TestSweepHandlesMixedBatch(t *testing.T) {
	confirmed := "111"
	dangling := "222"
	store := &sweepStore{expired: []models.Ticket{
		expiredTicket(1, nil),
		expiredTicket(2, &confirmed),
		expiredTicket(3, &dangling),
	}}
	gateway := &sweepGateway{}
	job := NewHoldExpirationJob(store, gateway, nil, time.Minute)

	// Scripted per-payment statuses
	gateway.status = "CONFIRMED"
	require.NoError(t, job.reclaimHold(context.Background(), &store.expired[1]))
	gateway.status = "PROCESSED"
	require.NoError(t, job.reclaimHold(context.Background(), &store.expired[0]))
	require.NoError(t, job.reclaimHold(context.Background(), &store.expired[2]))

	assert.ElementsMatch(t, []int64{1, 3}, store.cleared)
	assert.Equal(t, []string{"222"}, gateway.cancelled)
}
