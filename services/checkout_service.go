package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"booking-system/internal/services/payments"
	"booking-system/internal/status"
	"booking-system/models"
	"booking-system/monitoring"
	"booking-system/pricing"
	"booking-system/utils"
)

const (
	checkoutCurrency = "usd"
	minGuests        = 1
	maxGuests        = 4
)

type CheckoutRequest struct {
	RoomTier  models.RoomTier `json:"roomTier"`
	CheckIn   string          `json:"checkIn"`
	CheckOut  string          `json:"checkOut"`
	Guests    int             `json:"guests"`
	UserID    string          `json:"userId"`
	UserEmail string          `json:"userEmail"`
	UserName  string          `json:"userName"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutService turns a validated booking request into a pending
// reservation plus a hosted checkout session. The reservation is written
// before the provider is contacted, so a crash or provider failure can only
// leave an orphaned pending record behind, never an untracked payment.
type CheckoutService struct {
	store       ReservationStore
	provider    payments.Provider
	breaker     *utils.CircuitBreaker
	frontendURL string
}

func NewCheckoutService(store ReservationStore, provider payments.Provider, frontendURL string) *CheckoutService {
	return &CheckoutService{
		store:       store,
		provider:    provider,
		breaker:     utils.NewCircuitBreaker("payment-provider"),
		frontendURL: frontendURL,
	}
}

func (s *CheckoutService) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if req.RoomTier == "" || req.CheckIn == "" || req.CheckOut == "" || req.UserID == "" || req.UserEmail == "" {
		return nil, status.ErrMissingFields
	}
	if req.Guests < minGuests || req.Guests > maxGuests {
		return nil, status.ErrInvalidGuestCount
	}

	quote, err := pricing.Calculate(req.RoomTier, req.CheckIn, req.CheckOut)
	if err != nil {
		monitoring.TrackCheckout(string(req.RoomTier), "invalid")
		return nil, err
	}

	reservation := &models.Reservation{
		UserID:            req.UserID,
		UserEmail:         req.UserEmail,
		UserName:          req.UserName,
		RoomTier:          quote.RoomTier,
		RoomName:          quote.RoomName,
		CheckIn:           req.CheckIn,
		CheckOut:          req.CheckOut,
		Guests:            req.Guests,
		Nights:            quote.Nights,
		BasePricePerNight: quote.BasePricePerNight,
		PricePerNight:     averageNightlyRate(quote.TotalPrice, quote.Nights),
		TotalPrice:        quote.TotalPrice,
		PaymentStatus:     models.StatusPending,
	}

	// The reservation must exist before the session so its id can ride along
	// in the session metadata.
	if err := s.store.Create(ctx, reservation); err != nil {
		monitoring.TrackCheckout(string(req.RoomTier), "store_error")
		return nil, err
	}

	session, err := s.createSession(ctx, reservation, quote)
	if err != nil {
		// The pending record stays behind on purpose; the sweeper and the
		// verify path can still resolve it if a session was actually opened.
		monitoring.TrackCheckout(string(req.RoomTier), "provider_error")
		return nil, fmt.Errorf("%w: %v", status.ErrPaymentProvider, err)
	}

	if err := s.store.SetSessionID(ctx, reservation.ID, session.ID); err != nil {
		// The metadata on the session still carries the reservation id, so
		// reconciliation can repair the missing link later.
		log.Printf("CreateCheckout: link session %s to reservation %s: %v", session.ID, reservation.ID, err)
	}

	monitoring.TrackCheckout(string(req.RoomTier), "ok")
	return &CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *CheckoutService) createSession(ctx context.Context, r *models.Reservation, quote *pricing.Quote) (*payments.Session, error) {
	idemKey, err := utils.GenerateCode(16)
	if err != nil {
		return nil, fmt.Errorf("createSession: utils.GenerateCode: %v", err)
	}

	req := &payments.SessionRequest{
		AmountMinor:    quote.TotalPrice * 100,
		Currency:       checkoutCurrency,
		ProductName:    quote.RoomName,
		Description:    fmt.Sprintf("%s to %s, %d guests, %d nights", r.CheckIn, r.CheckOut, r.Guests, r.Nights),
		CustomerEmail:  r.UserEmail,
		SuccessURL:     fmt.Sprintf("%s/booking/success?session_id={CHECKOUT_SESSION_ID}", s.frontendURL),
		CancelURL:      fmt.Sprintf("%s/booking/cancel", s.frontendURL),
		IdempotencyKey: idemKey,
		Metadata: map[string]string{
			"reservationId": r.ID,
			"userId":        r.UserID,
			"roomTier":      string(r.RoomTier),
			"checkIn":       r.CheckIn,
			"checkOut":      r.CheckOut,
			"guests":        fmt.Sprintf("%d", r.Guests),
			"nights":        fmt.Sprintf("%d", r.Nights),
			"totalPrice":    fmt.Sprintf("%d", r.TotalPrice),
		},
	}

	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.provider.CreateCheckoutSession(ctx, req)
	})
	monitoring.TrackProviderRequest("create_session", time.Since(start))
	if err != nil {
		return nil, err
	}

	return result.(*payments.Session), nil
}

// averageNightlyRate is the effective per-night price across mixed-season
// stays, rounded half-up.
func averageNightlyRate(total int64, nights int) int64 {
	if nights <= 0 {
		return total
	}
	return decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(nights))).
		Round(0).
		IntPart()
}
