package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"booking-system/internal/status"
	"booking-system/models"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

const (
	MinNights = 1
	MaxNights = 30
)

// Quote is the authoritative price for a stay. TotalPrice is the sum of the
// per-night charges; no rounding happens at the aggregate level.
type Quote struct {
	RoomTier             models.RoomTier `json:"roomTier"`
	RoomName             string          `json:"roomName"`
	CheckIn              string          `json:"checkIn"`
	CheckOut             string          `json:"checkOut"`
	Nights               int             `json:"nights"`
	BasePricePerNight    int64           `json:"basePricePerNight"`
	TotalPrice           int64           `json:"totalPrice"`
	HasHighSeasonNights  bool            `json:"hasHighSeasonNights"`
	HighSeasonMultiplier float64         `json:"highSeasonMultiplier"`
}

var highSeasonRate = decimal.NewFromFloat(HighSeasonMultiplier)

// NightlyPrice returns the charge for a single night: the base rate, or the
// surcharged rate rounded half-up to whole currency units.
func NightlyPrice(base int64, night time.Time) int64 {
	if !IsHighSeason(night) {
		return base
	}
	return decimal.NewFromInt(base).Mul(highSeasonRate).Round(0).IntPart()
}

// ParseDate parses a YYYY-MM-DD string as a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, status.ErrInvalidDate
	}
	return t, nil
}

// ValidateRange checks a parsed date pair against a reference clock and
// returns the number of nights. The check-in day itself is bookable; only
// dates strictly before the reference day are rejected.
func ValidateRange(checkIn, checkOut, now time.Time) (int, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return 0, status.ErrCheckInPast
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights < MinNights {
		return 0, status.ErrCheckOutNotAfter
	}
	if nights > MaxNights {
		return 0, status.ErrStayTooLong
	}
	return nights, nil
}

// Calculate prices a stay against the current wall clock.
func Calculate(tier models.RoomTier, checkIn, checkOut string) (*Quote, error) {
	return CalculateAt(tier, checkIn, checkOut, time.Now().UTC())
}

// CalculateAt prices a stay against an explicit reference clock. Each night in
// [checkIn, checkOut) is priced independently so a stay can straddle a season
// boundary with mixed rates.
func CalculateAt(tier models.RoomTier, checkIn, checkOut string, now time.Time) (*Quote, error) {
	room, ok := models.RoomByTier(tier)
	if !ok {
		return nil, status.ErrInvalidRoomTier
	}

	in, err := ParseDate(checkIn)
	if err != nil {
		return nil, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return nil, err
	}

	nights, err := ValidateRange(in, out, now)
	if err != nil {
		return nil, err
	}

	var total int64
	var high bool
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		if IsHighSeason(d) {
			high = true
		}
		total += NightlyPrice(room.BasePricePerNight, d)
	}

	return &Quote{
		RoomTier:             room.Tier,
		RoomName:             room.Name,
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		Nights:               nights,
		BasePricePerNight:    room.BasePricePerNight,
		TotalPrice:           total,
		HasHighSeasonNights:  high,
		HighSeasonMultiplier: HighSeasonMultiplier,
	}, nil
}
