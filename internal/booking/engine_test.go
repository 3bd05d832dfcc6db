package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedHold struct {
	d time.Duration
}

func (f *fixedHold) HoldDuration() time.Duration { return f.d }

type fakeStore struct {
	tickets map[int64]*models.Ticket
	cleared []int64
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*models.Ticket, error) {
	return s.tickets[id], nil
}

func (s *fakeStore) ClearHold(_ context.Context, id int64) error {
	s.cleared = append(s.cleared, id)
	if t, ok := s.tickets[id]; ok {
		t.BookedUntil = nil
	}
	return nil
}

func newEngine(hold time.Duration) (*Engine, *fakeStore) {
	store := &fakeStore{tickets: map[int64]*models.Ticket{}}
	return NewEngine(&fixedHold{d: hold}, store), store
}

func TestIsBooked(t *testing.T) {
	engine, _ := newEngine(15 * time.Minute)

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Minute)

	assert.False(t, engine.IsBooked(&models.Ticket{}), "no hold")
	assert.False(t, engine.IsBooked(&models.Ticket{BookedUntil: &past}), "expired hold")
	assert.True(t, engine.IsBooked(&models.Ticket{BookedUntil: &future}), "active hold")
}

func TestTemporaryBook(t *testing.T) {
	engine, _ := newEngine(15 * time.Minute)
	ticket := &models.Ticket{ID: 1}

	engine.TemporaryBook(ticket)

	require.NotNil(t, ticket.BookedUntil)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), *ticket.BookedUntil, time.Second)
	assert.Equal(t, models.StateHeld, ticket.State)
	assert.True(t, engine.IsBooked(ticket))
}

func TestTemporaryBookReadsDurationEveryCall(t *testing.T) {
	hold := &fixedHold{d: 15 * time.Minute}
	engine := NewEngine(hold, &fakeStore{tickets: map[int64]*models.Ticket{}})

	first := &models.Ticket{ID: 1}
	engine.TemporaryBook(first)

	// The hold duration changed at runtime, the next booking must see it
	hold.d = 5 * time.Minute
	second := &models.Ticket{ID: 2}
	engine.TemporaryBook(second)

	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), *first.BookedUntil, time.Second)
	assert.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), *second.BookedUntil, time.Second)
}

func TestUnbookIsIdempotent(t *testing.T) {
	engine, _ := newEngine(15 * time.Minute)
	ticket := &models.Ticket{ID: 1}
	engine.TemporaryBook(ticket)

	engine.Unbook(ticket)
	assert.Nil(t, ticket.BookedUntil)
	assert.Equal(t, models.StateAvailable, ticket.State)

	// Unbooking an unheld ticket is a no-op, not an error
	engine.Unbook(ticket)
	assert.Nil(t, ticket.BookedUntil)
}

func TestUnbookKeepsSoldState(t *testing.T) {
	engine, _ := newEngine(15 * time.Minute)
	until := time.Now().UTC().Add(time.Minute)
	ticket := &models.Ticket{ID: 1, Sold: true, State: models.StateSold, BookedUntil: &until}

	engine.Unbook(ticket)

	assert.Nil(t, ticket.BookedUntil)
	assert.Equal(t, models.StateSold, ticket.State)
}

func TestUnbookByID(t *testing.T) {
	engine, store := newEngine(15 * time.Minute)
	until := time.Now().UTC().Add(time.Minute)
	store.tickets[7] = &models.Ticket{ID: 7, BookedUntil: &until}

	err := engine.UnbookByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, []int64{7}, store.cleared)
	assert.Nil(t, store.tickets[7].BookedUntil)
}

func TestUnbookByIDMissingTicket(t *testing.T) {
	engine, _ := newEngine(15 * time.Minute)

	err := engine.UnbookByID(context.Background(), 42)

	assert.True(t, errors.Is(err, apperrors.ErrTicketNotFound))
}
