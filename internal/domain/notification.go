package domain

import "time"

// NotificationKind identifies the template an outbound message is
// rendered from.
type NotificationKind string

const (
	NotifConfirmationRequest NotificationKind = "confirmation_request"
	NotifBookingConfirmed    NotificationKind = "booking_confirmed"
	NotifBookingCancelled    NotificationKind = "booking_cancelled"
	NotifAdminNewConfirmed   NotificationKind = "admin_new_confirmed_booking"
	NotifCustom              NotificationKind = "custom"
)

// EmailMessage is an outbox row. Rendering and delivery live behind the
// notifier boundary; the booking engine only records intent.
type EmailMessage struct {
	ID        int64            `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Recipient string           `json:"recipient"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	SentAt    *time.Time       `json:"sent_at,omitempty"`
}
