package models

import "time"

// PaymentStatus is the lifecycle state of a reservation's payment.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusRefunded  PaymentStatus = "refunded"
)

// PaymentSignal is a normalized fact derived from a provider checkout session,
// regardless of whether it arrived via webhook, client poll, or sweep.
type PaymentSignal string

const (
	SignalPaid    PaymentSignal = "paid"
	SignalExpired PaymentSignal = "expired"
)

// Decision is the outcome of applying a signal to a reservation status.
type Decision int

const (
	DecisionApply Decision = iota
	DecisionNoop
	DecisionConflict
)

func (d Decision) String() string {
	switch d {
	case DecisionApply:
		return "apply"
	case DecisionNoop:
		return "noop"
	case DecisionConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ApplySignal is the single transition function shared by every reconciliation
// entry point. completed and failed are terminal: a repeated signal that agrees
// with the current state is a no-op, a signal that contradicts a terminal state
// is a conflict and must not be applied.
func ApplySignal(current PaymentStatus, sig PaymentSignal) (PaymentStatus, Decision) {
	switch current {
	case StatusPending:
		if sig == SignalPaid {
			return StatusCompleted, DecisionApply
		}
		return StatusFailed, DecisionApply
	case StatusCompleted:
		if sig == SignalPaid {
			return StatusCompleted, DecisionNoop
		}
		return StatusCompleted, DecisionConflict
	case StatusFailed:
		if sig == SignalExpired {
			return StatusFailed, DecisionNoop
		}
		return StatusFailed, DecisionConflict
	default:
		return current, DecisionConflict
	}
}

// Reservation is the persistent booking record. Dates are YYYY-MM-DD strings
// in UTC. PricePerNight is the average effective nightly rate actually charged;
// BasePricePerNight is the tier's low-season rate.
type Reservation struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	UserEmail         string        `json:"userEmail"`
	UserName          string        `json:"userName"`
	RoomTier          RoomTier      `json:"roomTier"`
	RoomName          string        `json:"roomName"`
	CheckIn           string        `json:"checkIn"`
	CheckOut          string        `json:"checkOut"`
	Guests            int           `json:"guests"`
	Nights            int           `json:"nights"`
	BasePricePerNight int64         `json:"basePricePerNight"`
	PricePerNight     int64         `json:"pricePerNight"`
	TotalPrice        int64         `json:"totalPrice"`
	SessionID         string        `json:"sessionId"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	Created           time.Time     `json:"created"`
	Updated           time.Time     `json:"updated"`
}
