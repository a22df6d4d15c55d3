package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"booking-system/internal/status"
	"booking-system/services"
)

type ReservationHandler struct {
	store      services.ReservationStore
	reconciler *services.ReconcileService
}

func NewReservationHandler(store services.ReservationStore, reconciler *services.ReconcileService) *ReservationHandler {
	return &ReservationHandler{
		store:      store,
		reconciler: reconciler,
	}
}

// VerifySession - success-page poll; asks the provider directly and reconciles
func (h *ReservationHandler) VerifySession(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")
	if sessionID == "" {
		return apis.NewBadRequestError("Missing session id", nil)
	}

	ctx := e.Request.Context()
	reservation, err := h.reconciler.VerifySession(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrSessionNotPaid):
			return e.JSON(http.StatusBadRequest, map[string]any{
				"verified": false,
				"error":    "Payment not completed",
			})

		case errors.Is(err, status.ErrReservationNotFound):
			// The payment is settled but the metadata was too thin to rebuild
			// the full reservation record.
			return e.JSON(http.StatusOK, map[string]any{
				"verified": true,
				"message":  "Payment verified but reservation details are incomplete",
			})

		default:
			slog.Error("h.reconciler.VerifySession()", "sessionId", sessionID, "error", err)
			return apis.NewInternalServerError("Failed to verify session", err)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"verified":    true,
		"reservation": reservation,
	})
}

// ListByUser - a guest's reservations, completed only unless includeAll=true
func (h *ReservationHandler) ListByUser(e *core.RequestEvent) error {
	userID := e.Request.PathValue("userId")
	if userID == "" {
		return apis.NewBadRequestError("Missing user id", nil)
	}

	includeAll := e.Request.URL.Query().Get("includeAll") == "true"

	ctx := e.Request.Context()
	reservations, err := h.store.ListByUser(ctx, userID, includeAll)
	if err != nil {
		slog.Error("h.store.ListByUser()", "userId", userID, "error", err)
		return apis.NewInternalServerError("Failed to fetch reservations", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reservations": reservations,
	})
}
