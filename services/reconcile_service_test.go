package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booking-system/internal/services/payments"
	"booking-system/internal/status"
	"booking-system/models"
)

// mockStore is a testify mock over the ReservationStore interface, shared by
// the service tests in this package.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, r *models.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) GetBySessionID(ctx context.Context, sessionID string) (*models.Reservation, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) ListByUser(ctx context.Context, userID string, includeAll bool) ([]*models.Reservation, error) {
	args := m.Called(ctx, userID, includeAll)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockStore) ListStalePending(ctx context.Context, before time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockStore) SetSessionID(ctx context.Context, id, sessionID string) error {
	args := m.Called(ctx, id, sessionID)
	return args.Error(0)
}

func (m *mockStore) SetStatus(ctx context.Context, id string, st models.PaymentStatus) (*models.Reservation, error) {
	args := m.Called(ctx, id, st)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

// fakeProvider implements payments.Provider with pluggable functions.
type fakeProvider struct {
	createFn   func(ctx context.Context, req *payments.SessionRequest) (*payments.Session, error)
	retrieveFn func(ctx context.Context, sessionID string) (*payments.Session, error)
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, req *payments.SessionRequest) (*payments.Session, error) {
	return f.createFn(ctx, req)
}

func (f *fakeProvider) RetrieveSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	return f.retrieveFn(ctx, sessionID)
}

func (f *fakeProvider) ConstructWebhookEvent([]byte, string) (*payments.Event, error) {
	return nil, errors.New("not implemented")
}

// fakeNotifier records completion pushes.
type fakeNotifier struct {
	completed []*models.Reservation
}

func (f *fakeNotifier) NotifyCompleted(_ context.Context, r *models.Reservation) {
	f.completed = append(f.completed, r)
}

func paidSession(id string, metadata map[string]string) *payments.Session {
	return &payments.Session{
		ID:            id,
		PaymentStatus: payments.PaymentStatusPaid,
		Status:        payments.SessionStatusComplete,
		CustomerEmail: "guest@example.com",
		Metadata:      metadata,
	}
}

func expiredSession(id string, metadata map[string]string) *payments.Session {
	return &payments.Session{
		ID:            id,
		PaymentStatus: payments.PaymentStatusUnpaid,
		Status:        payments.SessionStatusExpired,
		Metadata:      metadata,
	}
}

func pendingReservation(id, sessionID string) *models.Reservation {
	return &models.Reservation{
		ID:            id,
		UserID:        "user_9",
		RoomTier:      models.TierLodgeSuites,
		SessionID:     sessionID,
		PaymentStatus: models.StatusPending,
	}
}

func TestReconcile_PaidSignalCompletesPendingReservation(t *testing.T) {
	store := new(mockStore)
	notifier := &fakeNotifier{}
	svc := NewReconcileService(store, &fakeProvider{}, notifier)

	reservation := pendingReservation("res_1", "cs_1")
	completed := *reservation
	completed.PaymentStatus = models.StatusCompleted

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil)
	store.On("SetStatus", mock.Anything, "res_1", models.StatusCompleted).Return(&completed, nil)

	err := svc.Reconcile(context.Background(), SourceWebhook, paidSession("cs_1", nil))

	require.NoError(t, err)
	store.AssertExpectations(t)
	require.Len(t, notifier.completed, 1)
	assert.Equal(t, "res_1", notifier.completed[0].ID)
}

func TestReconcile_ExpirySignalFailsPendingReservation(t *testing.T) {
	store := new(mockStore)
	notifier := &fakeNotifier{}
	svc := NewReconcileService(store, &fakeProvider{}, notifier)

	reservation := pendingReservation("res_1", "cs_1")
	failed := *reservation
	failed.PaymentStatus = models.StatusFailed

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil)
	store.On("SetStatus", mock.Anything, "res_1", models.StatusFailed).Return(&failed, nil)

	err := svc.Reconcile(context.Background(), SourceWebhook, expiredSession("cs_1", nil))

	require.NoError(t, err)
	store.AssertExpectations(t)
	assert.Empty(t, notifier.completed)
}

func TestReconcile_DuplicatePaidSignalIsNoop(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	reservation := pendingReservation("res_1", "cs_1")
	reservation.PaymentStatus = models.StatusCompleted

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil)

	err := svc.Reconcile(context.Background(), SourcePoll, paidSession("cs_1", nil))

	require.NoError(t, err)
	store.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_ExpiryAfterCompletionIsRejected(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	reservation := pendingReservation("res_1", "cs_1")
	reservation.PaymentStatus = models.StatusCompleted

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil)

	err := svc.Reconcile(context.Background(), SourceWebhook, expiredSession("cs_1", nil))

	require.NoError(t, err)
	store.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_PaidAfterFailureIsRejected(t *testing.T) {
	store := new(mockStore)
	notifier := &fakeNotifier{}
	svc := NewReconcileService(store, &fakeProvider{}, notifier)

	reservation := pendingReservation("res_1", "cs_1")
	reservation.PaymentStatus = models.StatusFailed

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil)

	err := svc.Reconcile(context.Background(), SourceWebhook, paidSession("cs_1", nil))

	require.NoError(t, err)
	store.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, notifier.completed)
}

func TestReconcile_FallsBackToMetadataLookupAndHealsLink(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	reservation := pendingReservation("res_1", "")
	completed := *reservation
	completed.PaymentStatus = models.StatusCompleted

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(nil, status.ErrReservationNotFound)
	store.On("GetByID", mock.Anything, "res_1").Return(reservation, nil)
	store.On("SetSessionID", mock.Anything, "res_1", "cs_1").Return(nil)
	store.On("SetStatus", mock.Anything, "res_1", models.StatusCompleted).Return(&completed, nil)

	err := svc.Reconcile(context.Background(), SourceWebhook,
		paidSession("cs_1", map[string]string{"reservationId": "res_1"}))

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReconcile_ReconstructsFromCompleteMetadata(t *testing.T) {
	store := new(mockStore)
	notifier := &fakeNotifier{}
	svc := NewReconcileService(store, &fakeProvider{}, notifier)

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(nil, status.ErrReservationNotFound)
	store.On("GetByID", mock.Anything, "res_lost").Return(nil, status.ErrReservationNotFound)
	store.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Reservation) bool {
		return r.ID == "res_lost" &&
			r.PaymentStatus == models.StatusCompleted &&
			r.RoomTier == models.TierLodgeSuites &&
			r.RoomName == "Lodge Suites" &&
			r.SessionID == "cs_1" &&
			r.TotalPrice == 4140 &&
			r.Nights == 3 &&
			r.Guests == 2 &&
			r.UserEmail == "guest@example.com"
	})).Return(nil)

	session := paidSession("cs_1", map[string]string{
		"reservationId": "res_lost",
		"userId":        "user_9",
		"roomTier":      "lodge-suites",
		"checkIn":       "2026-07-01",
		"checkOut":      "2026-07-04",
		"guests":        "2",
		"nights":        "3",
		"totalPrice":    "4140",
	})

	err := svc.Reconcile(context.Background(), SourcePoll, session)

	require.NoError(t, err)
	store.AssertExpectations(t)
	require.Len(t, notifier.completed, 1)
	assert.Equal(t, "res_lost", notifier.completed[0].ID)
}

func TestReconcile_IncompleteMetadataIsLoggedNotCreated(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(nil, status.ErrReservationNotFound)

	err := svc.Reconcile(context.Background(), SourceWebhook, paidSession("cs_1", map[string]string{}))

	require.NoError(t, err)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReconcile_ExpiredUnknownSessionIsIgnored(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(nil, status.ErrReservationNotFound)

	err := svc.Reconcile(context.Background(), SourceWebhook, expiredSession("cs_1", nil))

	require.NoError(t, err)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_UnsettledSessionIsSkipped(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	session := &payments.Session{
		ID:            "cs_1",
		PaymentStatus: payments.PaymentStatusUnpaid,
		Status:        payments.SessionStatusOpen,
	}

	err := svc.Reconcile(context.Background(), SourcePoll, session)

	require.NoError(t, err)
	store.AssertNotCalled(t, "GetBySessionID", mock.Anything, mock.Anything)
}

func TestReconcile_StoreFailurePropagates(t *testing.T) {
	store := new(mockStore)
	svc := NewReconcileService(store, &fakeProvider{}, nil)

	reservation := pendingReservation("res_1", "cs_1")
	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil)
	store.On("SetStatus", mock.Anything, "res_1", models.StatusCompleted).
		Return(nil, status.ErrPersistence)

	err := svc.Reconcile(context.Background(), SourceWebhook, paidSession("cs_1", nil))

	assert.ErrorIs(t, err, status.ErrPersistence)
}

func TestVerifySession_PaidSessionReturnsReservation(t *testing.T) {
	store := new(mockStore)
	provider := &fakeProvider{
		retrieveFn: func(_ context.Context, sessionID string) (*payments.Session, error) {
			return paidSession(sessionID, nil), nil
		},
	}
	svc := NewReconcileService(store, provider, nil)

	reservation := pendingReservation("res_1", "cs_1")
	completed := *reservation
	completed.PaymentStatus = models.StatusCompleted

	store.On("GetBySessionID", mock.Anything, "cs_1").Return(reservation, nil).Once()
	store.On("SetStatus", mock.Anything, "res_1", models.StatusCompleted).Return(&completed, nil)
	store.On("GetBySessionID", mock.Anything, "cs_1").Return(&completed, nil)

	got, err := svc.VerifySession(context.Background(), "cs_1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.PaymentStatus)
}

func TestVerifySession_UnpaidSession(t *testing.T) {
	store := new(mockStore)
	provider := &fakeProvider{
		retrieveFn: func(_ context.Context, sessionID string) (*payments.Session, error) {
			return &payments.Session{
				ID:            sessionID,
				PaymentStatus: payments.PaymentStatusUnpaid,
				Status:        payments.SessionStatusOpen,
			}, nil
		},
	}
	svc := NewReconcileService(store, provider, nil)

	_, err := svc.VerifySession(context.Background(), "cs_1")

	assert.ErrorIs(t, err, status.ErrSessionNotPaid)
}

func TestVerifySession_ProviderFailure(t *testing.T) {
	store := new(mockStore)
	provider := &fakeProvider{
		retrieveFn: func(context.Context, string) (*payments.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewReconcileService(store, provider, nil)

	_, err := svc.VerifySession(context.Background(), "cs_1")

	assert.ErrorIs(t, err, status.ErrPaymentProvider)
}

func TestSweeper_ReconcilesStaleSessions(t *testing.T) {
	store := new(mockStore)
	provider := &fakeProvider{
		retrieveFn: func(_ context.Context, sessionID string) (*payments.Session, error) {
			return expiredSession(sessionID, nil), nil
		},
	}
	reconciler := NewReconcileService(store, provider, nil)
	sweeper := NewSweeper(store, reconciler, time.Minute, 30*time.Minute)

	stale := pendingReservation("res_1", "cs_stale")
	failed := *stale
	failed.PaymentStatus = models.StatusFailed

	store.On("ListStalePending", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.Reservation{stale}, nil)
	store.On("GetBySessionID", mock.Anything, "cs_stale").Return(stale, nil)
	store.On("SetStatus", mock.Anything, "res_1", models.StatusFailed).Return(&failed, nil)

	sweeper.sweep(context.Background())

	store.AssertExpectations(t)
}
