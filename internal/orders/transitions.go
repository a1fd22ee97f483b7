package orders

import (
	"fmt"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// transitions is the order lifecycle. Every status has an entry; terminal
// statuses map to an empty set.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusCreated:        {enums.OrderStatusPaymentPending, enums.OrderStatusCancelled},
	enums.OrderStatusPaymentPending: {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:           {enums.OrderStatusShipped, enums.OrderStatusRefunded},
	enums.OrderStatusShipped:        {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:      {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:      {},
	enums.OrderStatusRefunded:       {},
}

type inventoryEffect int

const (
	effectNone inventoryEffect = iota
	effectRelease
	effectDeduct
)

func (e inventoryEffect) String() string {
	switch e {
	case effectRelease:
		return "release"
	case effectDeduct:
		return "deduct"
	default:
		return "none"
	}
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from the given status.
func AllowedTransitions(from enums.OrderStatus) []enums.OrderStatus {
	next := transitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

// ValidateTransitionTable checks the lifecycle table is complete and closed.
func ValidateTransitionTable() error {
	return validateTable(transitions)
}

func validateTable(table map[enums.OrderStatus][]enums.OrderStatus) error {
	for _, status := range enums.OrderStatuses() {
		next, ok := table[status]
		if !ok {
			return fmt.Errorf("status %s has no transition entry", status)
		}
		if status.IsTerminal() && len(next) > 0 {
			return fmt.Errorf("terminal status %s must not have transitions", status)
		}
		for _, to := range next {
			if !to.IsValid() {
				return fmt.Errorf("status %s transitions to unknown status %q", status, to)
			}
			if to == status {
				return fmt.Errorf("status %s transitions to itself", status)
			}
		}
	}
	for status := range table {
		if !status.IsValid() {
			return fmt.Errorf("transition table has unknown status %q", status)
		}
	}
	return nil
}

// effectOf returns the stock side effect of entering to from from. Cancelling
// or refunding only releases stock while the order still holds a reservation:
// once PAID has deducted stock the reservation is gone, and releasing again
// would eat into reservations held by other orders.
func effectOf(from, to enums.OrderStatus) inventoryEffect {
	switch to {
	case enums.OrderStatusCancelled, enums.OrderStatusRefunded:
		if from.HoldsReservation() {
			return effectRelease
		}
		return effectNone
	case enums.OrderStatusPaid:
		return effectDeduct
	default:
		return effectNone
	}
}
