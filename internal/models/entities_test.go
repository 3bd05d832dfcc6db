package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStateTransitions(t *testing.T) {
	cases := []struct {
		from, to TicketState
		want     bool
	}{
		{StateAvailable, StateHeld, true},
		{StateAvailable, StateSold, false},
		{StateHeld, StateAwaitingConfirmation, true},
		{StateHeld, StateCancelled, true},
		{StateHeld, StateSold, false},
		{StateAwaitingConfirmation, StateSold, true},
		{StateAwaitingConfirmation, StateCancelled, true},
		{StateSold, StateReturned, true},
		{StateSold, StateHeld, false},
		{StateSold, StateAvailable, false},
		{StateReturned, StateHeld, true},
		{StateCancelled, StateHeld, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}
