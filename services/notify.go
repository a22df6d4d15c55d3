package services

import (
	"context"
	"fmt"
	"log"

	pubnub "github.com/pubnub/go"

	"booking-system/models"
)

// PubNubNotifier pushes reservation updates to the guest's private channel so
// the success page can react without polling.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

var _ Notifier = (*PubNubNotifier)(nil)

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) NotifyCompleted(_ context.Context, r *models.Reservation) {
	if n.pn == nil {
		return
	}

	channel := fmt.Sprintf("guest-%s", r.UserID)
	message := map[string]interface{}{
		"type":          "reservation_completed",
		"reservationId": r.ID,
		"sessionId":     r.SessionID,
		"roomTier":      string(r.RoomTier),
		"roomName":      r.RoomName,
		"checkIn":       r.CheckIn,
		"checkOut":      r.CheckOut,
		"totalPrice":    r.TotalPrice,
	}

	if _, _, err := n.pn.Publish().
		Channel(channel).
		Message(message).
		Execute(); err != nil {
		log.Printf("NotifyCompleted: pubnub publish to %s: %v", channel, err)
	}
}
