package stripe

import (
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"booking-system/internal/services/payments"
	"booking-system/internal/status"
)

// DefaultTolerance bounds the age of a webhook signature timestamp.
const DefaultTolerance = 5 * time.Minute

// ConstructWebhookEvent verifies the signature header against the raw payload
// and parses the event. Verification failures return ErrInvalidSignature
// before the payload is interpreted.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (*payments.Event, error) {
	if err := verifySignature(payload, sigHeader, c.webhookSecret, time.Now()); err != nil {
		return nil, err
	}

	var reply struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object sessionPayload `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &reply); err != nil {
		return nil, fmt.Errorf("constructWebhookEvent: json.Unmarshal: %w", err)
	}

	return &payments.Event{
		ID:      reply.ID,
		Type:    reply.Type,
		Session: reply.Data.Object.toDomain(),
	}, nil
}

// verifySignature checks a "t=...,v1=..." header: the v1 values are HMAC-SHA256
// hex digests over "{t}.{payload}", and t must be within tolerance of now.
func verifySignature(payload []byte, sigHeader, secret string, now time.Time) error {
	var ts int64
	var candidates []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", status.ErrInvalidSignature)
			}
			ts = parsed
		case "v1":
			candidates = append(candidates, v)
		}
	}

	if ts == 0 || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed header", status.ErrInvalidSignature)
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > DefaultTolerance || age < -DefaultTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", status.ErrInvalidSignature)
	}

	signed := fmt.Sprintf("%d.%s", ts, payload)
	expected := Hmac256([]byte(signed), []byte(secret))
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching v1 signature", status.ErrInvalidSignature)
}
