package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is the closed set of labels the classifier may assign. Wire
// strings match what the provider is prompted to answer with.
type Category string

const (
	CategoryInterested    Category = "Interested"
	CategoryMeetingBooked Category = "Meeting Booked"
	CategoryNotInterested Category = "Not Interested"
	CategorySpam          Category = "Spam"
	CategoryOutOfOffice   Category = "Out of Office"

	// CategoryUnclassifiable marks an email the pipeline gave up on after
	// exhausting classification attempts. It is outside the closed enum:
	// it never qualifies for notification and never comes from the
	// provider.
	CategoryUnclassifiable Category = "Unclassifiable"
)

var validCategories = map[Category]struct{}{
	CategoryInterested:    {},
	CategoryMeetingBooked: {},
	CategoryNotInterested: {},
	CategorySpam:          {},
	CategoryOutOfOffice:   {},
}

// Valid reports whether c is a member of the closed enum.
func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}

// ParseCategory validates a provider response against the closed enum. An
// unrecognized value is a gateway failure, never stored.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Email is one stored message. The ID is derived from the account and the
// source-side message identifier, so re-fetching the same mail is
// idempotent.
type Email struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"accountId"`
	Folder         string    `json:"folder"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	ReceivedAt     time.Time `json:"date"`
	IsRead         bool      `json:"isRead"`
	IsStarred      bool      `json:"isStarred"`
	HasAttachments bool      `json:"hasAttachments"`

	// Category is empty while classification is pending. It transitions
	// empty -> one fixed value and never reverts automatically; only an
	// explicit user action may clear or overwrite it.
	Category      Category   `json:"category,omitempty"`
	CategorizedAt *time.Time `json:"categorizedAt,omitempty"`

	// ClassificationAttempts only ever increases.
	ClassificationAttempts int `json:"classificationAttempts,omitempty"`
}

// Pending reports whether the email still awaits classification.
func (e *Email) Pending() bool { return e.Category == "" }
