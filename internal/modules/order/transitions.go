package order

import "github.com/georgemunganga/marketplace-api/internal/platform/apperr"

// transitions lists, for each current status, the statuses it may move to.
// Non-terminal orders may jump to any status; Delivered and Cancelled are
// closed.
var transitions = map[Status][]Status{
	StatusPending:    allStatuses,
	StatusConfirmed:  allStatuses,
	StatusProcessing: allStatuses,
	StatusShipped:    allStatuses,
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool { return len(transitions[s]) == 0 }

// checkTransition returns InvalidTransition when from may not move to to.
func checkTransition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	switch {
	case from == StatusDelivered && to == StatusCancelled:
		return apperr.InvalidTransition("cannot cancel delivered orders")
	case IsTerminal(from):
		return apperr.InvalidTransition("order is already %s", from)
	default:
		return apperr.InvalidTransition("cannot move order from %s to %s", from, to)
	}
}
