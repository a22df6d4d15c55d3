package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySignal_PendingTransitions(t *testing.T) {
	next, decision := ApplySignal(StatusPending, SignalPaid)
	assert.Equal(t, StatusCompleted, next)
	assert.Equal(t, DecisionApply, decision)

	next, decision = ApplySignal(StatusPending, SignalExpired)
	assert.Equal(t, StatusFailed, next)
	assert.Equal(t, DecisionApply, decision)
}

func TestApplySignal_TerminalStatesAreIdempotent(t *testing.T) {
	next, decision := ApplySignal(StatusCompleted, SignalPaid)
	assert.Equal(t, StatusCompleted, next)
	assert.Equal(t, DecisionNoop, decision)

	next, decision = ApplySignal(StatusFailed, SignalExpired)
	assert.Equal(t, StatusFailed, next)
	assert.Equal(t, DecisionNoop, decision)
}

func TestApplySignal_TerminalStatesNeverRegress(t *testing.T) {
	// An expiry arriving after completion must not downgrade the reservation.
	next, decision := ApplySignal(StatusCompleted, SignalExpired)
	assert.Equal(t, StatusCompleted, next)
	assert.Equal(t, DecisionConflict, decision)

	// A paid signal after a recorded failure is a conflict, not a late win.
	next, decision = ApplySignal(StatusFailed, SignalPaid)
	assert.Equal(t, StatusFailed, next)
	assert.Equal(t, DecisionConflict, decision)
}

func TestApplySignal_SignalOrderDoesNotChangeOutcome(t *testing.T) {
	// Whichever signal lands first decides the terminal state; replaying the
	// full signal history in any order never moves it again.
	st := StatusPending
	for _, sig := range []PaymentSignal{SignalPaid, SignalExpired, SignalPaid} {
		next, decision := ApplySignal(st, sig)
		if decision == DecisionApply {
			st = next
		}
	}
	assert.Equal(t, StatusCompleted, st)

	st = StatusPending
	for _, sig := range []PaymentSignal{SignalExpired, SignalPaid, SignalExpired} {
		next, decision := ApplySignal(st, sig)
		if decision == DecisionApply {
			st = next
		}
	}
	assert.Equal(t, StatusFailed, st)
}

func TestApplySignal_RefundedIsUntouchable(t *testing.T) {
	for _, sig := range []PaymentSignal{SignalPaid, SignalExpired} {
		next, decision := ApplySignal(StatusRefunded, sig)
		assert.Equal(t, StatusRefunded, next)
		assert.Equal(t, DecisionConflict, decision)
	}
}

func TestRoomByTier(t *testing.T) {
	room, ok := RoomByTier(TierScalesiaBungalows)
	require.True(t, ok)
	assert.Equal(t, int64(1850), room.BasePricePerNight)
	assert.Equal(t, 4, room.MaxGuests)

	_, ok = RoomByTier("penthouse")
	assert.False(t, ok)
}

func TestAllRooms_OrderAndPrices(t *testing.T) {
	all := AllRooms()
	require.Len(t, all, 3)
	assert.Equal(t, TierLodgeSuites, all[0].Tier)
	assert.Equal(t, int64(1150), all[0].BasePricePerNight)
	assert.Equal(t, TierScalesiaBungalows, all[1].Tier)
	assert.Equal(t, TierAquaVillas, all[2].Tier)
	assert.Equal(t, int64(3200), all[2].BasePricePerNight)
}

func TestReservationJSONSerialization(t *testing.T) {
	r := Reservation{
		ID:                "res_123",
		UserID:            "user_456",
		UserEmail:         "guest@example.com",
		UserName:          "Ada Guest",
		RoomTier:          TierAquaVillas,
		RoomName:          "Aqua Villas",
		CheckIn:           "2026-07-01",
		CheckOut:          "2026-07-04",
		Guests:            2,
		Nights:            3,
		BasePricePerNight: 3200,
		PricePerNight:     3840,
		TotalPrice:        11520,
		SessionID:         "cs_test_abc",
		PaymentStatus:     StatusCompleted,
		Created:           time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded Reservation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.ID, decoded.ID)
	assert.Equal(t, r.RoomTier, decoded.RoomTier)
	assert.Equal(t, r.TotalPrice, decoded.TotalPrice)
	assert.Equal(t, r.PaymentStatus, decoded.PaymentStatus)
	assert.Contains(t, string(data), `"sessionId":"cs_test_abc"`)
	assert.Contains(t, string(data), `"paymentStatus":"completed"`)
}
