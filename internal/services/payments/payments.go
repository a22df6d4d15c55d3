package payments

import "context"

// SignatureHeader carries the webhook signature on provider callbacks.
const SignatureHeader = "Stripe-Signature"

// Checkout session payment states as reported by the provider.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// Checkout session lifecycle states.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// Webhook event types the reconciliation path understands.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// Provider abstracts the hosted-checkout payment provider.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout page for one booking.
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)

	// RetrieveSession fetches the current state of a checkout session.
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)

	// ConstructWebhookEvent verifies the signature over a raw webhook payload
	// and parses it. The payload must be rejected before any state change
	// when verification fails.
	ConstructWebhookEvent(payload []byte, sigHeader string) (*Event, error)
}

// SessionRequest describes one hosted checkout session. AmountMinor is the
// total charge in the provider's minor units (cents).
type SessionRequest struct {
	AmountMinor    int64
	Currency       string
	ProductName    string
	Description    string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	Metadata       map[string]string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	Status        string
	CustomerEmail string
	Metadata      map[string]string
}

// Paid reports whether the session has been settled.
func (s *Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// Event is a verified webhook notification.
type Event struct {
	ID      string
	Type    string
	Session *Session
}
