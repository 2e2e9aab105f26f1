package domain

// eventTransitions lists the legal forward moves of the event lifecycle.
// Any non-terminal status may also move to cancelled.
var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPending, EventConfirmed, EventCancelled},
	EventPending:   {EventConfirmed, EventCancelled},
	EventConfirmed: {EventPending, EventCompleted, EventCancelled},
	EventCompleted: {},
	EventCancelled: {},
}

func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s == next {
		return true
	}
	for _, t := range eventTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPending, EventConfirmed, EventCompleted, EventCancelled:
		return true
	}
	return false
}

func (s EventStatus) Terminal() bool {
	return s == EventCompleted || s == EventCancelled
}

// Terminal invoice states admit no further status change. Completed is
// terminal because a completed invoice is a consumed sale note.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceCompleted || s == InvoiceCancelled
}

func (s ContractStatus) Terminal() bool {
	return s == ContractSigned || s == ContractCancelled
}
