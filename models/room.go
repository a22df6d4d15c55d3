package models

// RoomTier identifies one of the fixed accommodation categories.
type RoomTier string

const (
	TierLodgeSuites       RoomTier = "lodge-suites"
	TierScalesiaBungalows RoomTier = "scalesia-bungalows"
	TierAquaVillas        RoomTier = "aqua-villas"
)

// Room holds the immutable attributes of a tier. BasePricePerNight is in whole
// currency units and is the server-side source of truth for pricing.
type Room struct {
	Tier              RoomTier `json:"tier"`
	Name              string   `json:"name"`
	Tagline           string   `json:"tagline"`
	Description       string   `json:"description"`
	BasePricePerNight int64    `json:"basePricePerNight"`
	MaxGuests         int      `json:"maxGuests"`
	Size              string   `json:"size"`
}

var rooms = []Room{
	{
		Tier:              TierLodgeSuites,
		Name:              "Lodge Suites",
		Tagline:           "Classic Elegance",
		Description:       "Spacious suites in the main lodge with highland views and private terraces.",
		BasePricePerNight: 1150,
		MaxGuests:         4,
		Size:              "55 m²",
	},
	{
		Tier:              TierScalesiaBungalows,
		Name:              "Scalesia Bungalows",
		Tagline:           "Refined Seclusion",
		Description:       "Standalone bungalows set within the scalesia forest canopy.",
		BasePricePerNight: 1850,
		MaxGuests:         4,
		Size:              "85 m²",
	},
	{
		Tier:              TierAquaVillas,
		Name:              "Aqua Villas",
		Tagline:           "Ultimate Immersion",
		Description:       "Oceanfront villas with private plunge pools and direct reef access.",
		BasePricePerNight: 3200,
		MaxGuests:         4,
		Size:              "140 m²",
	},
}

// AllRooms returns the room catalog in display order.
func AllRooms() []Room {
	out := make([]Room, len(rooms))
	copy(out, rooms)
	return out
}

// RoomByTier looks up a room by its tier identifier.
func RoomByTier(tier RoomTier) (Room, bool) {
	for _, r := range rooms {
		if r.Tier == tier {
			return r, true
		}
	}
	return Room{}, false
}
