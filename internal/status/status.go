package status

import "errors"

var (
	// Booking validation.
	ErrInvalidRoomTier   = errors.New("booking: invalid room tier")
	ErrInvalidDate       = errors.New("booking: invalid date format")
	ErrCheckInPast       = errors.New("booking: check-in date cannot be in the past")
	ErrCheckOutNotAfter  = errors.New("booking: check-out must be after check-in")
	ErrStayTooLong       = errors.New("booking: maximum stay is 30 nights")
	ErrInvalidGuestCount = errors.New("booking: guests must be between 1 and 4")
	ErrMissingFields     = errors.New("booking: missing required fields")

	// Reservation store.
	ErrReservationNotFound = errors.New("reservation: not found")
	ErrPersistence         = errors.New("reservation: store operation failed")

	// Payment provider.
	ErrPaymentProvider  = errors.New("payment: provider request failed")
	ErrInvalidSignature = errors.New("payment: webhook signature verification failed")
	ErrSessionNotPaid   = errors.New("payment: session not paid")
)
