package mailsource

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"context"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
)

// IMAPSource fetches messages over IMAP with TLS. One Fetch is one
// connect/search/fetch/logout cycle; production would hold an IDLE
// connection instead, which changes the transport but not the pipeline
// contract.
type IMAPSource struct {
	// Timeout bounds every socket operation on the connection.
	Timeout time.Duration

	// Lookback bounds the initial fetch when an account has no watermark
	// yet.
	Lookback time.Duration
}

var _ Source = (*IMAPSource)(nil)

func NewIMAPSource() *IMAPSource {
	return &IMAPSource{
		Timeout:  30 * time.Second,
		Lookback: 30 * 24 * time.Hour,
	}
}

func (s *IMAPSource) Fetch(ctx context.Context, account model.Account, credential string, since time.Time) ([]RawMessage, error) {
	addr := fmt.Sprintf("%s:%d", account.Host, account.Port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, errclass.Transient("imap dial "+addr, err)
	}
	c.Timeout = s.Timeout
	defer c.Logout()

	if err := c.Login(account.Username, credential); err != nil {
		// 认证失败是确定性拒绝，不重试
		return nil, errclass.Permanent("imap login", err)
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, errclass.Transient("imap select", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	if since.IsZero() {
		criteria.Since = time.Now().Add(-s.Lookback)
	} else {
		// SINCE is date-granular; exact watermark filtering happens below.
		criteria.Since = since
	}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, errclass.Transient("imap search", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var out []RawMessage
	for msg := range ch {
		raw, ok := s.normalize(msg, section)
		if !ok {
			continue
		}
		if !since.IsZero() && !raw.Date.After(since) {
			continue
		}
		out = append(out, raw)
	}
	if err := <-done; err != nil {
		return nil, errclass.Transient("imap fetch", err)
	}

	// source order: oldest first within the account's stream
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *IMAPSource) normalize(msg *imap.Message, section *imap.BodySectionName) (RawMessage, bool) {
	if msg.Envelope == nil {
		return RawMessage{}, false
	}
	raw := RawMessage{
		SourceID: strconv.FormatUint(uint64(msg.Uid), 10),
		Folder:   "INBOX",
		Subject:  msg.Envelope.Subject,
		From:     formatAddresses(msg.Envelope.From),
		To:       formatAddresses(msg.Envelope.To),
		Date:     msg.Envelope.Date,
	}
	for _, f := range msg.Flags {
		switch f {
		case imap.SeenFlag:
			raw.Seen = true
		case imap.FlaggedFlag:
			raw.Flagged = true
		}
	}
	if body := msg.GetBody(section); body != nil {
		raw.Body, raw.HasAttachments = readBody(body)
	}
	return raw, true
}

// readBody extracts the first inline text part and notes whether any
// attachment parts exist.
func readBody(r io.Reader) (string, bool) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		// 非 MIME 内容按原样读取
		b, readErr := io.ReadAll(r)
		if readErr != nil {
			return "", false
		}
		return string(b), false
	}

	var text string
	var hasAttachments bool
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			if text != "" {
				continue
			}
			ct, _, _ := h.ContentType()
			if ct == "" || strings.HasPrefix(ct, "text/") {
				b, err := io.ReadAll(part.Body)
				if err == nil {
					text = string(b)
				}
			}
		case *mail.AttachmentHeader:
			hasAttachments = true
		}
	}
	return text, hasAttachments
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		parts = append(parts, a.Address())
	}
	return strings.Join(parts, ", ")
}
