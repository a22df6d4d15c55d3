package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"booking-system/services"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// CreateCheckout - persist a pending reservation and open a hosted checkout session
func (h *CheckoutHandler) CreateCheckout(e *core.RequestEvent) error {
	var req services.CheckoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	resp, err := h.checkoutService.CreateCheckout(ctx, &req)
	if err != nil {
		if isValidationErr(err) {
			return apis.NewBadRequestError(validationMessage(err), err)
		}
		slog.Error("h.checkoutService.CreateCheckout()", "userId", req.UserID, "error", err)
		return apis.NewInternalServerError("Failed to create checkout session", err)
	}

	return e.JSON(http.StatusOK, resp)
}
