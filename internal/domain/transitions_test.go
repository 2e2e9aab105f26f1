package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to EventStatus
		want     bool
	}{
		{EventDraft, EventPending, true},
		{EventDraft, EventConfirmed, true},
		{EventDraft, EventCancelled, true},
		{EventDraft, EventCompleted, false},
		{EventPending, EventConfirmed, true},
		{EventPending, EventCancelled, true},
		{EventPending, EventCompleted, false},
		{EventPending, EventDraft, false},
		{EventConfirmed, EventPending, true},
		{EventConfirmed, EventCompleted, true},
		{EventConfirmed, EventCancelled, true},
		{EventCompleted, EventCancelled, false},
		{EventCancelled, EventPending, false},
		{EventPending, EventPending, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestEventStatus_Reserving(t *testing.T) {
	assert.False(t, EventDraft.Reserving())
	assert.True(t, EventPending.Reserving())
	assert.True(t, EventConfirmed.Reserving())
	assert.False(t, EventCompleted.Reserving())
	assert.False(t, EventCancelled.Reserving())
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, EventCompleted.Terminal())
	assert.True(t, EventCancelled.Terminal())
	assert.False(t, EventConfirmed.Terminal())

	assert.True(t, InvoiceCompleted.Terminal())
	assert.True(t, InvoiceCancelled.Terminal())
	assert.False(t, InvoiceDraft.Terminal())
	assert.False(t, InvoicePending.Terminal())

	assert.True(t, ContractSigned.Terminal())
	assert.True(t, ContractCancelled.Terminal())
	assert.False(t, ContractPending.Terminal())
}
