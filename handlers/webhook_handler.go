package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"booking-system/internal/services/payments"
	"booking-system/services"
)

type WebhookHandler struct {
	provider   payments.Provider
	reconciler *services.ReconcileService
}

func NewWebhookHandler(provider payments.Provider, reconciler *services.ReconcileService) *WebhookHandler {
	return &WebhookHandler{
		provider:   provider,
		reconciler: reconciler,
	}
}

// HandleWebhook - provider-signed payment notifications. The signature is
// verified over the raw body before anything is interpreted; once an event is
// accepted the response is 200 regardless of the reconcile outcome, since the
// sweeper and verify path can re-derive the same state later.
func (h *WebhookHandler) HandleWebhook(e *core.RequestEvent) error {
	payload, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Failed to read request body", err)
	}

	event, err := h.provider.ConstructWebhookEvent(payload, e.Request.Header.Get(payments.SignatureHeader))
	if err != nil {
		log.Printf("HandleWebhook: signature verification failed: %v", err)
		return apis.NewBadRequestError("Webhook signature verification failed", err)
	}

	ctx := e.Request.Context()
	switch event.Type {
	case payments.EventCheckoutCompleted, payments.EventCheckoutExpired:
		if err := h.reconciler.Reconcile(ctx, services.SourceWebhook, event.Session); err != nil {
			log.Printf("HandleWebhook: reconcile session %s: %v", event.Session.ID, err)
		}

	case payments.EventPaymentFailed:
		log.Printf("HandleWebhook: payment failed event %s", event.ID)

	default:
		log.Printf("HandleWebhook: unhandled event type %s", event.Type)
	}

	return e.JSON(http.StatusOK, map[string]any{"received": true})
}
