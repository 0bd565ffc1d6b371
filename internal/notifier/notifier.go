package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/modules/livefeed"
	"workshopdesk/internal/repository"
)

// Service renders notifications into outbox rows and mirrors booking
// lifecycle events onto the staff live feed. Delivery of the rows is a
// separate worker's job.
type Service struct {
	outbox  *repository.EmailOutboxRepository
	hub     *livefeed.Hub
	baseURL string
}

func New(outbox *repository.EmailOutboxRepository, hub *livefeed.Hub, baseURL string) *Service {
	return &Service{
		outbox:  outbox,
		hub:     hub,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Notify records one outbound message. A false return means the outbox
// write failed; callers treat that as a warning, never as a failed
// state transition.
func (s *Service) Notify(ctx context.Context, kind domain.NotificationKind, recipient string, payload map[string]any) bool {
	subject, body := s.render(kind, payload)
	msg := &domain.EmailMessage{
		Kind:      kind,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	}
	if err := s.outbox.Create(ctx, msg); err != nil {
		log.Printf("notifier: outbox write failed kind=%s recipient=%s: %v", kind, recipient, err)
		return false
	}

	if event := feedEvent(kind, payload); event != nil {
		s.hub.Broadcast(event)
	}
	return true
}

func (s *Service) render(kind domain.NotificationKind, payload map[string]any) (subject, body string) {
	switch kind {
	case domain.NotifConfirmationRequest:
		title, _ := payload["workshop_title"].(string)
		token, _ := payload["token"].(string)
		subject = fmt.Sprintf("Please confirm your booking for %q", title)
		body = fmt.Sprintf(
			"Thank you for your booking request for %q.\n\n"+
				"Please confirm your spot within 48 hours:\n%s/bookings/confirm/%s\n\n"+
				"Participants: %v\nTotal: %s\n",
			title, s.baseURL, token, payload["participants"], formatAmount(payload))
	case domain.NotifBookingConfirmed:
		subject = "Your booking is confirmed"
		body = fmt.Sprintf(
			"Your booking is confirmed.\n\nParticipants: %v\nTotal: %s\n\nWe look forward to seeing you.\n",
			payload["participants"], formatAmount(payload))
	case domain.NotifBookingCancelled:
		subject = "Your booking was cancelled"
		body = fmt.Sprintf("Your booking (#%v) has been cancelled. If this is unexpected, please get in touch.\n",
			payload["booking_id"])
	case domain.NotifAdminNewConfirmed:
		subject = "New confirmed booking"
		body = fmt.Sprintf("Booking #%v was just confirmed.\n\nParticipants: %v\nTotal: %s\n",
			payload["booking_id"], payload["participants"], formatAmount(payload))
	default:
		subject, _ = payload["subject"].(string)
		body, _ = payload["body"].(string)
	}
	return subject, body
}

func formatAmount(payload map[string]any) string {
	total, ok := payload["total"].(float64)
	if !ok {
		return "-"
	}
	currency, _ := payload["currency"].(string)
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", total, currency))
}

// feedEvent maps notification kinds onto dashboard events. Only the
// admin-facing lifecycle moments are mirrored; booker-only mail like
// the confirmation request still announces the new pending booking.
func feedEvent(kind domain.NotificationKind, payload map[string]any) *livefeed.Event {
	switch kind {
	case domain.NotifConfirmationRequest:
		// The confirmation token stays between us and the booker.
		public := make(map[string]any, len(payload))
		for k, v := range payload {
			if k != "token" {
				public[k] = v
			}
		}
		return &livefeed.Event{Type: livefeed.EventBookingCreated, Payload: public}
	case domain.NotifAdminNewConfirmed:
		return &livefeed.Event{Type: livefeed.EventBookingConfirmed, Payload: payload}
	case domain.NotifBookingCancelled:
		return &livefeed.Event{Type: livefeed.EventBookingCancelled, Payload: payload}
	}
	return nil
}
