package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"booking-system/internal/status"
	"booking-system/models"
)

const reservationsCollection = "reservations"

// ReservationStore is the persistence boundary for reservations. Lookups by
// session id and user id are secondary access patterns over the same records.
type ReservationStore interface {
	// Create persists a reservation. When r.ID is set the record keeps that
	// id, which is how reconstruction reuses the id carried in session
	// metadata. The generated id and timestamps are written back into r.
	Create(ctx context.Context, r *models.Reservation) error

	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Reservation, error)

	// ListByUser returns a user's reservations newest first. Unless
	// includeAll is set, only completed ones are returned.
	ListByUser(ctx context.Context, userID string, includeAll bool) ([]*models.Reservation, error)

	// ListStalePending returns pending reservations with a session id that
	// were created before the cutoff.
	ListStalePending(ctx context.Context, before time.Time) ([]*models.Reservation, error)

	SetSessionID(ctx context.Context, id, sessionID string) error
	SetStatus(ctx context.Context, id string, st models.PaymentStatus) (*models.Reservation, error)
}

// PBReservationStore stores reservations in a PocketBase collection.
type PBReservationStore struct {
	app core.App
}

var _ ReservationStore = (*PBReservationStore)(nil)

func NewReservationStore(app core.App) *PBReservationStore {
	return &PBReservationStore{app: app}
}

func (s *PBReservationStore) Create(ctx context.Context, r *models.Reservation) error {
	collection, err := s.app.FindCollectionByNameOrId(reservationsCollection)
	if err != nil {
		return fmt.Errorf("%w: find collection: %v", status.ErrPersistence, err)
	}

	record := core.NewRecord(collection)
	if r.ID != "" {
		record.Id = r.ID
	}
	applyReservation(record, r)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("%w: save: %v", status.ErrPersistence, err)
	}

	r.ID = record.Id
	r.Created = record.GetDateTime("created").Time()
	r.Updated = record.GetDateTime("updated").Time()
	return nil
}

func (s *PBReservationStore) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	record, err := s.app.FindRecordById(reservationsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReservationNotFound
		}
		return nil, fmt.Errorf("%w: find by id: %v", status.ErrPersistence, err)
	}
	return recordToReservation(record), nil
}

func (s *PBReservationStore) GetBySessionID(_ context.Context, sessionID string) (*models.Reservation, error) {
	record, err := s.app.FindFirstRecordByFilter(
		reservationsCollection,
		"session_id = {:sessionId}",
		dbx.Params{"sessionId": sessionID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReservationNotFound
		}
		return nil, fmt.Errorf("%w: find by session id: %v", status.ErrPersistence, err)
	}
	return recordToReservation(record), nil
}

func (s *PBReservationStore) ListByUser(_ context.Context, userID string, includeAll bool) ([]*models.Reservation, error) {
	records, err := s.app.FindRecordsByFilter(
		reservationsCollection,
		"user_id = {:userId}",
		"-created",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list by user: %v", status.ErrPersistence, err)
	}

	// Status filtering stays in code so the collection only needs the
	// user_id index.
	out := make([]*models.Reservation, 0, len(records))
	for _, record := range records {
		r := recordToReservation(record)
		if !includeAll && r.PaymentStatus != models.StatusCompleted {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *PBReservationStore) ListStalePending(_ context.Context, before time.Time) ([]*models.Reservation, error) {
	records, err := s.app.FindRecordsByFilter(
		reservationsCollection,
		"payment_status = 'pending' && session_id != '' && created < {:cutoff}",
		"created",
		0,
		0,
		dbx.Params{"cutoff": before.UTC().Format(types.DefaultDateLayout)},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list stale pending: %v", status.ErrPersistence, err)
	}

	out := make([]*models.Reservation, 0, len(records))
	for _, record := range records {
		out = append(out, recordToReservation(record))
	}
	return out, nil
}

func (s *PBReservationStore) SetSessionID(ctx context.Context, id, sessionID string) error {
	record, err := s.app.FindRecordById(reservationsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrReservationNotFound
		}
		return fmt.Errorf("%w: find by id: %v", status.ErrPersistence, err)
	}

	record.Set("session_id", sessionID)
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("%w: save session id: %v", status.ErrPersistence, err)
	}
	return nil
}

func (s *PBReservationStore) SetStatus(ctx context.Context, id string, st models.PaymentStatus) (*models.Reservation, error) {
	record, err := s.app.FindRecordById(reservationsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReservationNotFound
		}
		return nil, fmt.Errorf("%w: find by id: %v", status.ErrPersistence, err)
	}

	record.Set("payment_status", string(st))
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: save status: %v", status.ErrPersistence, err)
	}
	return recordToReservation(record), nil
}

func applyReservation(record *core.Record, r *models.Reservation) {
	record.Set("user_id", r.UserID)
	record.Set("user_email", r.UserEmail)
	record.Set("user_name", r.UserName)
	record.Set("room_tier", string(r.RoomTier))
	record.Set("room_name", r.RoomName)
	record.Set("check_in", r.CheckIn)
	record.Set("check_out", r.CheckOut)
	record.Set("guests", r.Guests)
	record.Set("nights", r.Nights)
	record.Set("base_price_per_night", r.BasePricePerNight)
	record.Set("price_per_night", r.PricePerNight)
	record.Set("total_price", r.TotalPrice)
	record.Set("session_id", r.SessionID)
	record.Set("payment_status", string(r.PaymentStatus))
}

func recordToReservation(record *core.Record) *models.Reservation {
	return &models.Reservation{
		ID:                record.Id,
		UserID:            record.GetString("user_id"),
		UserEmail:         record.GetString("user_email"),
		UserName:          record.GetString("user_name"),
		RoomTier:          models.RoomTier(record.GetString("room_tier")),
		RoomName:          record.GetString("room_name"),
		CheckIn:           record.GetString("check_in"),
		CheckOut:          record.GetString("check_out"),
		Guests:            record.GetInt("guests"),
		Nights:            record.GetInt("nights"),
		BasePricePerNight: int64(record.GetInt("base_price_per_night")),
		PricePerNight:     int64(record.GetInt("price_per_night")),
		TotalPrice:        int64(record.GetInt("total_price")),
		SessionID:         record.GetString("session_id"),
		PaymentStatus:     models.PaymentStatus(record.GetString("payment_status")),
		Created:           record.GetDateTime("created").Time(),
		Updated:           record.GetDateTime("updated").Time(),
	}
}
