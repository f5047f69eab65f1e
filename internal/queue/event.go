// Package queue defines the events exchanged over RabbitMQ and the consumer
// that records them in the activity log.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-manager/internal/model"
)

// Exchange and queue names.
const (
	ExchangeName      = "restaurant.events"
	ActivityQueueName = "restaurant.activity"
)

// Routing keys, also used as Envelope.Type.
const (
	LayoutCommitted    = "layout.committed"
	ReservationCreated = "reservation.created"
	InventoryLow       = "inventory.low"
	NoticePublished    = "notice.published"
)

// Envelope wraps every event with routing metadata.
type Envelope struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	OrganizationID uint64          `json:"organization_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Payload        json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload under a fresh event id.
func NewEnvelope(kind string, orgID uint64, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Envelope{
		ID:             uuid.NewString(),
		Type:           kind,
		OrganizationID: orgID,
		OccurredAt:     time.Now().UTC(),
		Payload:        raw,
	}, nil
}

// LayoutCommittedEvent is published when a hall layout is saved.
type LayoutCommittedEvent struct {
	HallID    uint64                `json:"hall_id"`
	HallName  string                `json:"hall_name"`
	UserID    uint64                `json:"user_id"`
	SessionID string                `json:"session_id,omitempty"`
	Positions []model.TablePosition `json:"positions"`
}

// ReservationCreatedEvent is published after a booking is stored.
type ReservationCreatedEvent struct {
	ReservationID    uint64    `json:"reservation_id"`
	TableID          uint64    `json:"table_id"`
	TableNumber      string    `json:"table_number"`
	GuestName        string    `json:"guest_name"`
	PartySize        int       `json:"party_size"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	ConfirmationCode string    `json:"confirmation_code"`
}

// InventoryLowEvent is published when an adjustment takes an item below its
// reorder threshold.
type InventoryLowEvent struct {
	ItemID      uint64  `json:"item_id"`
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	MinQuantity float64 `json:"min_quantity"`
}

// NoticePublishedEvent is published for every new notice.
type NoticePublishedEvent struct {
	NoticeID uint64 `json:"notice_id"`
	AuthorID uint64 `json:"author_id"`
	Title    string `json:"title"`
	Pinned   bool   `json:"pinned"`
}

// Describe renders an envelope as one human-friendly activity log line.
// Unknown types and undecodable payloads still produce a line with the raw
// payload so nothing is silently dropped.
func Describe(env Envelope) string {
	head := fmt.Sprintf("[%s] org=%d", env.OccurredAt.UTC().Format(time.RFC3339), env.OrganizationID)
	switch env.Type {
	case LayoutCommitted:
		var ev LayoutCommittedEvent
		if json.Unmarshal(env.Payload, &ev) == nil {
			return fmt.Sprintf("%s | Layout committed | hall_id=%d | hall=%q | user_id=%d | tables=%d",
				head, ev.HallID, ev.HallName, ev.UserID, len(ev.Positions))
		}
	case ReservationCreated:
		var ev ReservationCreatedEvent
		if json.Unmarshal(env.Payload, &ev) == nil {
			return fmt.Sprintf("%s | Reservation created | reservation_id=%d | table=%q | guest=%q | party=%d | from=%s | to=%s | code=%s",
				head, ev.ReservationID, ev.TableNumber, ev.GuestName, ev.PartySize,
				ev.StartsAt.UTC().Format(time.RFC3339), ev.EndsAt.UTC().Format(time.RFC3339), ev.ConfirmationCode)
		}
	case InventoryLow:
		var ev InventoryLowEvent
		if json.Unmarshal(env.Payload, &ev) == nil {
			return fmt.Sprintf("%s | Inventory low | item_id=%d | item=%q | quantity=%g %s | min=%g %s",
				head, ev.ItemID, ev.Name, ev.Quantity, ev.Unit, ev.MinQuantity, ev.Unit)
		}
	case NoticePublished:
		var ev NoticePublishedEvent
		if json.Unmarshal(env.Payload, &ev) == nil {
			return fmt.Sprintf("%s | Notice published | notice_id=%d | title=%q | pinned=%t | author_id=%d",
				head, ev.NoticeID, ev.Title, ev.Pinned, ev.AuthorID)
		}
	}
	return fmt.Sprintf("%s | %s | payload=%s", head, env.Type, string(env.Payload))
}
