package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"booking-system/internal/status"
	"booking-system/models"
	"booking-system/pricing"
	"booking-system/services"
)

type PricingHandler struct {
	pricingService *services.PricingService
}

func NewPricingHandler(pricingService *services.PricingService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
	}
}

// CalculatePrice - authoritative server-side quote for a stay
func (h *PricingHandler) CalculatePrice(e *core.RequestEvent) error {
	var req struct {
		RoomTier models.RoomTier `json:"roomTier"`
		CheckIn  string          `json:"checkIn"`
		CheckOut string          `json:"checkOut"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.RoomTier == "" || req.CheckIn == "" || req.CheckOut == "" {
		return apis.NewBadRequestError("Missing required fields", nil)
	}

	ctx := e.Request.Context()
	quote, err := h.pricingService.Quote(ctx, req.RoomTier, req.CheckIn, req.CheckOut)
	if err != nil {
		if isValidationErr(err) {
			return apis.NewBadRequestError(validationMessage(err), err)
		}
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, quote)
}

// ListRooms - room catalog plus the pricing rules clients mirror for previews
func (h *PricingHandler) ListRooms(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{
		"rooms":                models.AllRooms(),
		"highSeasonMultiplier": pricing.HighSeasonMultiplier,
		"highSeasons":          pricing.HighSeasons,
	})
}

// isValidationErr reports whether err is a booking validation failure that
// maps to a 400 response.
func isValidationErr(err error) bool {
	for _, sentinel := range []error{
		status.ErrInvalidRoomTier,
		status.ErrInvalidDate,
		status.ErrCheckInPast,
		status.ErrCheckOutNotAfter,
		status.ErrStayTooLong,
		status.ErrInvalidGuestCount,
		status.ErrMissingFields,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// validationMessage maps validation sentinels to client-facing messages.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, status.ErrInvalidRoomTier):
		return "Invalid room tier"
	case errors.Is(err, status.ErrInvalidDate):
		return "Invalid date format"
	case errors.Is(err, status.ErrCheckInPast):
		return "Check-in date cannot be in the past"
	case errors.Is(err, status.ErrCheckOutNotAfter):
		return "Check-out must be after check-in"
	case errors.Is(err, status.ErrStayTooLong):
		return "Maximum stay is 30 nights"
	case errors.Is(err, status.ErrInvalidGuestCount):
		return "Guests must be between 1 and 4"
	case errors.Is(err, status.ErrMissingFields):
		return "Missing required fields"
	default:
		return "Invalid request"
	}
}
