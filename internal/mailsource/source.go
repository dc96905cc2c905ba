// Package mailsource supplies the stream of raw messages per account. The
// pipeline depends only on the Source interface; the network transport
// behind it is an external collaborator.
package mailsource

import (
	"context"
	"time"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
)

// RawMessage is one message as produced by a source, before normalization
// into a stored Email.
type RawMessage struct {
	// SourceID is stable on the source side (IMAP UID); together with the
	// account it determines the stored email ID.
	SourceID string

	Folder         string
	From           string
	To             string
	Subject        string
	Body           string
	Date           time.Time
	Seen           bool
	Flagged        bool
	HasAttachments bool
}

// Source produces the new messages for one account since a watermark, in
// source order. The credential is handed in unsealed by the sync worker and
// must not be retained.
type Source interface {
	Fetch(ctx context.Context, account model.Account, credential string, since time.Time) ([]RawMessage, error)
}
