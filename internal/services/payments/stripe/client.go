package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"booking-system/internal/services/payments"
)

// sessionPayload is the provider wire shape of a checkout session.
type sessionPayload struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

func (p *sessionPayload) toDomain() *payments.Session {
	return &payments.Session{
		ID:            p.ID,
		URL:           p.URL,
		PaymentStatus: p.PaymentStatus,
		Status:        p.Status,
		CustomerEmail: p.CustomerEmail,
		Metadata:      p.Metadata,
	}
}

// CreateCheckoutSession opens a hosted checkout session via the form-encoded
// sessions endpoint.
func (c *Client) CreateCheckoutSession(ctx context.Context, r *payments.SessionRequest) (*payments.Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", r.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(r.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", r.ProductName)
	if r.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", r.Description)
	}
	form.Set("success_url", r.SuccessURL)
	form.Set("cancel_url", r.CancelURL)
	if r.CustomerEmail != "" {
		form.Set("customer_email", r.CustomerEmail)
	}
	for k, v := range r.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s%s", c.baseURL, "/v1/checkout/sessions"),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("createCheckoutSession: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if r.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.IdempotencyKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createCheckoutSession: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("createCheckoutSession: %s", decodeAPIError(resp))
	}

	var reply sessionPayload
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("createCheckoutSession: json.Decode: %w", err)
	}

	return reply.toDomain(), nil
}

// RetrieveSession fetches the current state of a checkout session.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(sessionID)), nil)
	if err != nil {
		return nil, fmt.Errorf("retrieveSession: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieveSession: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieveSession: %s", decodeAPIError(resp))
	}

	var reply sessionPayload
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("retrieveSession: json.Decode: %w", err)
	}

	return reply.toDomain(), nil
}

// decodeAPIError extracts the provider error message from a non-200 reply.
func decodeAPIError(resp *http.Response) string {
	var reply struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil || reply.Error.Message == "" {
		return fmt.Sprintf("http.StatusCode: %d", resp.StatusCode)
	}
	return fmt.Sprintf("http.StatusCode: %d, type: %s, message: %s",
		resp.StatusCode, reply.Error.Type, reply.Error.Message)
}
