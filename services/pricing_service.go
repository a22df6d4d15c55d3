package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"booking-system/models"
	"booking-system/monitoring"
	"booking-system/pricing"
)

// PricingService serves authoritative quotes, with a short-lived Redis cache
// in front of the calculation. The cache key pins tier and both dates, so a
// hit always matches the request exactly.
type PricingService struct {
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewPricingService(redisClient *redis.Client, cacheTTL time.Duration) *PricingService {
	return &PricingService{
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

func (s *PricingService) Quote(ctx context.Context, tier models.RoomTier, checkIn, checkOut string) (*pricing.Quote, error) {
	key := fmt.Sprintf("quote:%s:%s:%s", tier, checkIn, checkOut)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			var q pricing.Quote
			if err := json.Unmarshal([]byte(cached), &q); err == nil {
				monitoring.TrackQuote(string(tier), "cache_hit")
				return &q, nil
			}
		}
	}

	q, err := pricing.Calculate(tier, checkIn, checkOut)
	if err != nil {
		monitoring.TrackQuote(string(tier), "invalid")
		return nil, err
	}
	monitoring.TrackQuote(string(tier), "ok")

	// The cache write is best effort: a failed Set only costs a recompute on
	// the next request.
	if s.redis != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(q); err == nil {
			if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				slog.Debug("pricing: quote cache write failed", "key", key, "error", err)
			}
		}
	}

	return q, nil
}
