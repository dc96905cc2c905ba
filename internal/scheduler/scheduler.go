// Package scheduler runs classification under a global concurrency ceiling
// with per-email leases and a bounded attempt budget.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/classifier"
	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/metrics"
)

const (
	defaultConcurrency = 5
	defaultMaxAttempts = 3
	defaultRetryDelay  = 200 * time.Millisecond
)

// Notifier receives freshly classified emails that qualify for delivery.
type Notifier interface {
	Dispatch(ctx context.Context, e model.Email)
}

type Config struct {
	// Concurrency caps provider calls in flight across the whole process,
	// interactive and batch alike.
	Concurrency int
	// MaxAttempts is the total attempt budget per email before it is
	// parked as unclassifiable.
	MaxAttempts int
}

type BatchResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Scheduler struct {
	emails      *repository.EmailRepository
	gateway     classifier.Gateway
	notifier    Notifier
	leases      *leaseSet
	sem         chan struct{}
	maxAttempts int
	retryDelay  time.Duration
	qualifies   func(model.Category) bool
	logger      *zap.Logger
}

func New(emails *repository.EmailRepository, gateway classifier.Gateway, notifier Notifier, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Scheduler{
		emails:      emails,
		gateway:     gateway,
		notifier:    notifier,
		leases:      newLeaseSet(),
		sem:         make(chan struct{}, cfg.Concurrency),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  defaultRetryDelay,
		qualifies:   func(c model.Category) bool { return c == model.CategoryInterested },
		logger:      logger,
	}
}

// Classify assigns a category to one email. Concurrent calls for the same
// email collapse: one holds the lease and does the work, the rest get
// ErrConflict. If the email is already categorized the stored value is
// returned without touching the provider.
func (s *Scheduler) Classify(ctx context.Context, emailID string) (model.Category, error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if !s.leases.acquire(emailID) {
		return "", fmt.Errorf("classification of %s already in flight: %w", emailID, errclass.ErrConflict)
	}
	defer s.leases.release(emailID)

	e, err := s.emails.Get(ctx, emailID)
	if err != nil {
		return "", err
	}
	if !e.Pending() {
		return e.Category, nil
	}

	return s.run(ctx, e)
}

// run drives the attempt loop. Every provider outcome is persisted as one
// attempt before anything else happens, so a crash never loses budget
// accounting.
func (s *Scheduler) run(ctx context.Context, e *model.Email) (model.Category, error) {
	delay := s.retryDelay
	for {
		cat, err := s.gateway.Classify(ctx, classifier.NewInput(*e))
		e.ClassificationAttempts++

		if err == nil {
			now := time.Now().UTC()
			e.Category = cat
			e.CategorizedAt = &now
			if putErr := s.emails.Put(ctx, e); putErr != nil {
				return "", putErr
			}
			metrics.EmailsClassified.WithLabelValues(string(cat), "ok").Inc()
			s.logger.Info("email classified",
				zap.String("email_id", e.ID),
				zap.String("category", string(cat)),
				zap.Int("attempts", e.ClassificationAttempts),
			)
			if s.qualifies(cat) && s.notifier != nil {
				s.notifier.Dispatch(ctx, *e)
			}
			return cat, nil
		}

		if e.ClassificationAttempts >= s.maxAttempts {
			now := time.Now().UTC()
			e.Category = model.CategoryUnclassifiable
			e.CategorizedAt = &now
			if putErr := s.emails.Put(ctx, e); putErr != nil {
				return "", putErr
			}
			metrics.EmailsClassified.WithLabelValues(string(model.CategoryUnclassifiable), "exhausted").Inc()
			s.logger.Warn("attempt budget exhausted, parking email",
				zap.String("email_id", e.ID),
				zap.Int("attempts", e.ClassificationAttempts),
				zap.Error(err),
			)
			return "", fmt.Errorf("classify %s: attempts exhausted: %w", e.ID, err)
		}

		if putErr := s.emails.Put(ctx, e); putErr != nil {
			return "", putErr
		}

		if !errclass.IsTransient(err) {
			metrics.EmailsClassified.WithLabelValues("", "failed").Inc()
			return "", fmt.Errorf("classify %s: %w", e.ID, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
}

// ClassifyAll classifies every pending email concurrently under the global
// ceiling. Emails whose lease is held elsewhere are skipped, not counted as
// failures.
func (s *Scheduler) ClassifyAll(ctx context.Context) (BatchResult, error) {
	pending, err := s.emails.ListPending(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		mu  sync.Mutex
		res BatchResult
		wg  sync.WaitGroup
	)
	for _, e := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.Classify(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Attempted++
				res.Succeeded++
			case errors.Is(err, errclass.ErrConflict):
				// in flight elsewhere, nothing to record
			default:
				res.Attempted++
				res.Failed++
			}
		}(e.ID)
	}
	wg.Wait()

	s.logger.Info("batch classification finished",
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
