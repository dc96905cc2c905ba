// Package classifier wraps the external classification capability behind a
// small gateway interface: retry, backoff and circuit breaking live here so
// callers only see typed results.
package classifier

import (
	"context"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
)

// bodyCap bounds the excerpt sent for classification, to bound payload and
// cost.
const bodyCap = 1000

// Input is the message excerpt handed to the provider.
type Input struct {
	From    string
	Subject string
	Body    string
}

// NewInput builds a classification input from an email, capping the body.
func NewInput(e model.Email) Input {
	body := e.Body
	if len(body) > bodyCap {
		body = body[:bodyCap]
	}
	return Input{From: e.From, Subject: e.Subject, Body: body}
}

// ReplyInput builds a suggest-reply input; replies see the full body.
func ReplyInput(e model.Email) Input {
	return Input{From: e.From, Subject: e.Subject, Body: e.Body}
}

// Gateway is the external classification capability.
type Gateway interface {
	// Classify maps the input to exactly one member of the closed category
	// enum.
	Classify(ctx context.Context, in Input) (model.Category, error)

	// SuggestReply drafts a reply grounded on the stored training context.
	SuggestReply(ctx context.Context, in Input, training model.TrainingData) (string, error)
}
