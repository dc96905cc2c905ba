// Package notify delivers "interested lead" notifications to the configured
// external sinks. Delivery is best effort: a failing sink is logged and
// counted, it never blocks classification or the other sinks.
package notify

import (
	"context"
	"time"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
)

const previewCap = 200

// Notification is the sink-independent payload built from a freshly
// categorized email.
type Notification struct {
	EmailID    string
	From       string
	Subject    string
	ReceivedAt time.Time
	Category   model.Category
	Preview    string
}

// FromEmail builds a Notification, capping the body preview.
func FromEmail(e model.Email) Notification {
	preview := e.Body
	if len(preview) > previewCap {
		preview = preview[:previewCap]
	}
	return Notification{
		EmailID:    e.ID,
		From:       e.From,
		Subject:    e.Subject,
		ReceivedAt: e.ReceivedAt,
		Category:   e.Category,
		Preview:    preview,
	}
}

// Sink is one delivery target.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}
