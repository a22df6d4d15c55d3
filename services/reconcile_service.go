package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"booking-system/internal/services/payments"
	"booking-system/internal/status"
	"booking-system/models"
	"booking-system/monitoring"
	"booking-system/utils"
)

// Source identifies which entry point delivered a payment signal. Every
// source flows through the same Reconcile path.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourcePoll    Source = "poll"
	SourceSweeper Source = "sweeper"
)

// Notifier pushes realtime updates to a guest's channel.
type Notifier interface {
	NotifyCompleted(ctx context.Context, r *models.Reservation)
}

// ReconcileService converges stored reservations with provider session state.
// All entry points are idempotent: replays and out-of-order deliveries either
// no-op or get logged as conflicts, they never regress a terminal status.
type ReconcileService struct {
	store    ReservationStore
	provider payments.Provider
	breaker  *utils.CircuitBreaker
	notifier Notifier
}

func NewReconcileService(store ReservationStore, provider payments.Provider, notifier Notifier) *ReconcileService {
	return &ReconcileService{
		store:    store,
		provider: provider,
		breaker:  utils.NewCircuitBreaker("payment-provider-reconcile"),
		notifier: notifier,
	}
}

// VerifySession resolves a client success-page poll. The provider is asked
// directly, the result is reconciled, and the reservation is returned. A
// session that has not been paid yet returns ErrSessionNotPaid.
func (s *ReconcileService) VerifySession(ctx context.Context, sessionID string) (*models.Reservation, error) {
	session, err := s.retrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrPaymentProvider, err)
	}

	if !session.Paid() {
		return nil, status.ErrSessionNotPaid
	}

	if err := s.Reconcile(ctx, SourcePoll, session); err != nil {
		return nil, err
	}

	return s.store.GetBySessionID(ctx, session.ID)
}

// ReconcileSession fetches a session by id and reconciles it. Used by the
// background sweeper where only the session id is at hand.
func (s *ReconcileService) ReconcileSession(ctx context.Context, source Source, sessionID string) error {
	session, err := s.retrieveSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", status.ErrPaymentProvider, err)
	}
	return s.Reconcile(ctx, source, session)
}

// Reconcile applies one provider session snapshot to the store. Already
// terminal reservations are treated as success; only store failures are
// returned as errors.
func (s *ReconcileService) Reconcile(ctx context.Context, source Source, session *payments.Session) error {
	signal, ok := signalFor(session)
	if !ok {
		slog.Info("reconcile: session not settled yet, skipping",
			"source", source,
			"sessionId", session.ID,
			"paymentStatus", session.PaymentStatus,
			"status", session.Status,
		)
		return nil
	}

	reservation, err := s.lookup(ctx, session)
	if err != nil {
		if !errors.Is(err, status.ErrReservationNotFound) {
			return err
		}
		if signal == models.SignalPaid {
			return s.reconstruct(ctx, source, session)
		}
		// Nothing to fail: an expired session for an unknown reservation
		// carries no money and needs no record.
		slog.Info("reconcile: expired session without reservation",
			"source", source, "sessionId", session.ID)
		return nil
	}

	// Heal a lost link: the reservation was found via metadata but never got
	// its session id persisted.
	if reservation.SessionID == "" {
		if err := s.store.SetSessionID(ctx, reservation.ID, session.ID); err != nil {
			return fmt.Errorf("reconcile: heal session link: %w", err)
		}
	}

	next, decision := models.ApplySignal(reservation.PaymentStatus, signal)
	monitoring.TrackReconcile(string(source), string(signal), decision.String())

	switch decision {
	case models.DecisionNoop:
		return nil

	case models.DecisionConflict:
		slog.Warn("reconcile: conflicting signal rejected",
			"source", source,
			"reservationId", reservation.ID,
			"sessionId", session.ID,
			"currentStatus", reservation.PaymentStatus,
			"signal", signal,
		)
		return nil
	}

	updated, err := s.store.SetStatus(ctx, reservation.ID, next)
	if err != nil {
		return fmt.Errorf("reconcile: set status: %w", err)
	}

	slog.Info("reconcile: status updated",
		"source", source,
		"reservationId", updated.ID,
		"sessionId", session.ID,
		"status", next,
	)

	if next == models.StatusCompleted && s.notifier != nil {
		s.notifier.NotifyCompleted(ctx, updated)
	}
	return nil
}

func (s *ReconcileService) lookup(ctx context.Context, session *payments.Session) (*models.Reservation, error) {
	reservation, err := s.store.GetBySessionID(ctx, session.ID)
	if err == nil {
		return reservation, nil
	}
	if !errors.Is(err, status.ErrReservationNotFound) {
		return nil, err
	}

	// Fall back to the reservation id carried in the session metadata.
	reservationID := session.Metadata["reservationId"]
	if reservationID == "" {
		return nil, status.ErrReservationNotFound
	}
	return s.store.GetByID(ctx, reservationID)
}

// reconstruct rebuilds a completed reservation purely from session metadata.
// This covers paid sessions whose pending record was never persisted or was
// lost, and it reuses the reservation id minted at checkout time so a late
// arriving original write cannot duplicate it.
func (s *ReconcileService) reconstruct(ctx context.Context, source Source, session *payments.Session) error {
	md := session.Metadata
	if md["reservationId"] == "" || md["userId"] == "" || md["roomTier"] == "" {
		slog.Warn("reconcile: paid session with incomplete metadata, cannot reconstruct",
			"source", source, "sessionId", session.ID)
		return nil
	}

	tier := models.RoomTier(md["roomTier"])
	roomName := string(tier)
	var basePrice int64
	if room, ok := models.RoomByTier(tier); ok {
		roomName = room.Name
		basePrice = room.BasePricePerNight
	}

	guests := metadataInt(md, "guests", 1)
	nights := metadataInt(md, "nights", 1)
	total := int64(metadataInt(md, "totalPrice", 0))

	reservation := &models.Reservation{
		ID:                md["reservationId"],
		UserID:            md["userId"],
		UserEmail:         session.CustomerEmail,
		UserName:          "Guest",
		RoomTier:          tier,
		RoomName:          roomName,
		CheckIn:           md["checkIn"],
		CheckOut:          md["checkOut"],
		Guests:            guests,
		Nights:            nights,
		BasePricePerNight: basePrice,
		PricePerNight:     averageNightlyRate(total, nights),
		TotalPrice:        total,
		SessionID:         session.ID,
		PaymentStatus:     models.StatusCompleted,
	}

	if err := s.store.Create(ctx, reservation); err != nil {
		return fmt.Errorf("reconcile: reconstruct reservation: %w", err)
	}

	monitoring.TrackReconcile(string(source), string(models.SignalPaid), "reconstructed")
	slog.Info("reconcile: reservation reconstructed from session metadata",
		"source", source,
		"reservationId", reservation.ID,
		"sessionId", session.ID,
	)

	if s.notifier != nil {
		s.notifier.NotifyCompleted(ctx, reservation)
	}
	return nil
}

func (s *ReconcileService) retrieveSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.provider.RetrieveSession(ctx, sessionID)
	})
	monitoring.TrackProviderRequest("retrieve_session", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.(*payments.Session), nil
}

// signalFor maps a session snapshot onto a payment signal. Sessions that are
// neither paid nor expired are still in flight and produce no signal.
func signalFor(session *payments.Session) (models.PaymentSignal, bool) {
	if session.Paid() {
		return models.SignalPaid, true
	}
	if session.Status == payments.SessionStatusExpired {
		return models.SignalExpired, true
	}
	return "", false
}

func metadataInt(md map[string]string, key string, fallback int) int {
	v, err := strconv.Atoi(md[key])
	if err != nil {
		return fallback
	}
	return v
}
