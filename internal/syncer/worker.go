// Package syncer runs one logical sync worker per connected account. A
// worker pulls new messages since the account's watermark, persists them,
// and leaves classification to the scheduler: ingestion rate is decoupled
// from classification rate.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/mailsource"
	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/metrics"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/secretbox"
)

const defaultFailureThreshold = 3

// Result is the outcome of one sync cycle.
type Result struct {
	NewCount  int       `json:"newCount"`
	Watermark time.Time `json:"watermark"`
}

type Worker struct {
	accounts  *repository.AccountRepository
	emails    *repository.EmailRepository
	source    mailsource.Source
	secrets   *secretbox.Box
	threshold int
	logger    *zap.Logger
}

func New(
	accounts *repository.AccountRepository,
	emails *repository.EmailRepository,
	source mailsource.Source,
	secrets *secretbox.Box,
	failureThreshold int,
	logger *zap.Logger,
) *Worker {
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThreshold
	}
	return &Worker{
		accounts:  accounts,
		emails:    emails,
		source:    source,
		secrets:   secrets,
		threshold: failureThreshold,
		logger:    logger,
	}
}

// EmailID derives the stored email ID from the account and the source-side
// message identifier. Deterministic IDs make re-fetching the same mail an
// idempotent upsert.
func EmailID(accountID, sourceID string) string {
	sum := sha256.Sum256([]byte(accountID + "/" + sourceID))
	return hex.EncodeToString(sum[:12])
}

// Sync runs one cycle for the account: fetch since watermark, persist, then
// advance the watermark. The watermark moves only after the fetched
// messages are durably persisted — a crash in between leaves it unchanged
// and replay converges because email IDs are deterministic.
func (w *Worker) Sync(ctx context.Context, accountID string) (Result, error) {
	started := time.Now()
	acct, err := w.accounts.Get(ctx, accountID)
	if err != nil {
		return Result{}, err
	}
	if acct.Status != model.AccountActive {
		return Result{}, fmt.Errorf("sync paused: account %s is %s: %w", accountID, acct.Status, errclass.ErrConflict)
	}

	credential := ""
	if acct.Credential != "" {
		credential, err = w.secrets.Open(acct.Credential)
		if err != nil {
			return Result{}, fmt.Errorf("unseal credential for %s: %w", accountID, err)
		}
	}

	raws, err := w.source.Fetch(ctx, acct.Redacted(), credential, acct.SyncWatermark)
	if err != nil {
		metrics.RecordSync("failed", time.Since(started))
		return Result{}, w.recordFailure(ctx, acct, err)
	}

	newCount := 0
	watermark := acct.SyncWatermark
	for _, raw := range raws {
		id := EmailID(acct.ID, raw.SourceID)
		_, err := w.emails.Get(ctx, id)
		switch {
		case errors.Is(err, errclass.ErrNotFound):
			e := normalize(acct.ID, id, raw)
			if err := w.emails.Put(ctx, &e); err != nil {
				return Result{}, fmt.Errorf("persist email %s: %w", id, err)
			}
			newCount++
		case err != nil:
			return Result{}, err
		default:
			// Already stored. Content fields are create-if-absent only;
			// category, isRead and isStarred may have been set by the
			// classifier or the user since first sync and are never
			// clobbered by a resync.
		}
		if raw.Date.After(watermark) {
			watermark = raw.Date
		}
	}

	if watermark.After(acct.SyncWatermark) {
		acct.SyncWatermark = watermark
	}
	now := time.Now().UTC()
	acct.LastSyncAt = &now
	acct.FailureStreak = 0
	if err := w.accounts.Update(ctx, acct); err != nil {
		return Result{}, fmt.Errorf("advance watermark for %s: %w", accountID, err)
	}

	metrics.RecordSync("success", time.Since(started))
	metrics.EmailsSynced.WithLabelValues(acct.Email).Add(float64(newCount))
	w.logger.Info("sync cycle complete",
		zap.String("account_id", accountID),
		zap.Int("fetched", len(raws)),
		zap.Int("new", newCount),
		zap.Time("watermark", acct.SyncWatermark),
	)
	return Result{NewCount: newCount, Watermark: acct.SyncWatermark}, nil
}

// recordFailure applies the failure policy: transient failures leave the
// account active until the consecutive-failure threshold; permanent
// rejections pause it immediately. The watermark is never touched on
// failure.
func (w *Worker) recordFailure(ctx context.Context, acct *model.Account, cause error) error {
	if errclass.IsTransient(cause) {
		acct.FailureStreak++
		if acct.FailureStreak >= w.threshold {
			acct.Status = model.AccountError
			w.logger.Warn("sync paused after repeated failures",
				zap.String("account_id", acct.ID),
				zap.Int("streak", acct.FailureStreak),
			)
		}
	} else {
		acct.Status = model.AccountError
		w.logger.Warn("sync paused on permanent failure",
			zap.String("account_id", acct.ID),
			zap.Error(cause),
		)
	}
	if err := w.accounts.Update(ctx, acct); err != nil {
		w.logger.Error("failed to record sync failure",
			zap.String("account_id", acct.ID),
			zap.Error(err),
		)
	}
	return fmt.Errorf("sync %s: %w", acct.ID, cause)
}

func normalize(accountID, id string, raw mailsource.RawMessage) model.Email {
	folder := raw.Folder
	if folder == "" {
		folder = "INBOX"
	}
	return model.Email{
		ID:             id,
		AccountID:      accountID,
		Folder:         folder,
		From:           raw.From,
		To:             raw.To,
		Subject:        raw.Subject,
		Body:           raw.Body,
		ReceivedAt:     raw.Date,
		IsRead:         raw.Seen,
		IsStarred:      raw.Flagged,
		HasAttachments: raw.HasAttachments,
	}
}
