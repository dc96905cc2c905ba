package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/classifier"
	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/kv"
)

// stubGateway scripts classification outcomes per call.
type stubGateway struct {
	mu      sync.Mutex
	calls   int
	outcome func(call int, in classifier.Input) (model.Category, error)
	block   chan struct{} // when set, Classify waits on it
}

func (g *stubGateway) Classify(_ context.Context, in classifier.Input) (model.Category, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	return g.outcome(call, in)
}

func (g *stubGateway) SuggestReply(context.Context, classifier.Input, model.TrainingData) (string, error) {
	return "", errors.New("not used")
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func alwaysInterested(int, classifier.Input) (model.Category, error) {
	return model.CategoryInterested, nil
}

type countingNotifier struct {
	count atomic.Int32
	last  atomic.Value
}

func (n *countingNotifier) Dispatch(_ context.Context, e model.Email) {
	n.count.Add(1)
	n.last.Store(e)
}

func newFixture(t *testing.T, gw classifier.Gateway, cfg Config) (*Scheduler, *repository.EmailRepository, *countingNotifier) {
	t.Helper()
	emails := repository.NewEmailRepository(kv.NewMemoryStore())
	notifier := &countingNotifier{}
	s := New(emails, gw, notifier, cfg, zap.NewNop())
	s.retryDelay = time.Millisecond
	return s, emails, notifier
}

func seedEmails(t *testing.T, emails *repository.EmailRepository, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("em-%d", i)
		err := emails.Put(context.Background(), &model.Email{
			ID:         id,
			AccountID:  "acct-1",
			From:       fmt.Sprintf("sender%d@example.com", i),
			Subject:    fmt.Sprintf("message %d", i),
			Body:       "hello",
			ReceivedAt: time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("seed email: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestClassifySetsCategoryAndNotifies(t *testing.T) {
	gw := &stubGateway{outcome: alwaysInterested}
	s, emails, notifier := newFixture(t, gw, Config{})
	ids := seedEmails(t, emails, 1)

	cat, err := s.Classify(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cat != model.CategoryInterested {
		t.Fatalf("category = %q", cat)
	}

	stored, err := emails.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Category != model.CategoryInterested {
		t.Errorf("stored category = %q", stored.Category)
	}
	if stored.CategorizedAt == nil {
		t.Error("CategorizedAt not set")
	}
	if stored.ClassificationAttempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.ClassificationAttempts)
	}
	if notifier.count.Load() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count.Load())
	}
}

func TestClassifyDoesNotNotifyNonQualifyingCategories(t *testing.T) {
	gw := &stubGateway{outcome: func(int, classifier.Input) (model.Category, error) {
		return model.CategorySpam, nil
	}}
	s, emails, notifier := newFixture(t, gw, Config{})
	ids := seedEmails(t, emails, 1)

	if _, err := s.Classify(context.Background(), ids[0]); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if notifier.count.Load() != 0 {
		t.Errorf("notifications = %d, want 0", notifier.count.Load())
	}
}

func TestConcurrentClassifyCollapsesToOneCall(t *testing.T) {
	block := make(chan struct{})
	gw := &stubGateway{outcome: alwaysInterested, block: block}
	s, emails, _ := newFixture(t, gw, Config{Concurrency: 10})
	ids := seedEmails(t, emails, 1)

	const racers = 5
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			_, err := s.Classify(context.Background(), ids[0])
			results <- err
		}()
	}

	// Wait for the winner to hit the gateway, then let it finish. The
	// losers resolve either way: conflict while the lease is held, or the
	// stored category afterwards.
	for gw.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	close(block)

	var conflicts, oks int
	for i := 0; i < racers; i++ {
		err := <-results
		switch {
		case err == nil:
			oks++
		case errors.Is(err, errclass.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if oks < 1 {
		t.Fatal("no caller succeeded")
	}
	if gw.callCount() != 1 {
		t.Fatalf("gateway calls = %d, want exactly 1", gw.callCount())
	}
	if oks+conflicts != racers {
		t.Fatalf("oks %d + conflicts %d != %d", oks, conflicts, racers)
	}
}

func TestClassifyReturnsStoredCategoryWithoutProviderCall(t *testing.T) {
	gw := &stubGateway{outcome: alwaysInterested}
	s, emails, _ := newFixture(t, gw, Config{})

	now := time.Now().UTC()
	err := emails.Put(context.Background(), &model.Email{
		ID:            "em-done",
		Category:      model.CategoryMeetingBooked,
		CategorizedAt: &now,
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	cat, err := s.Classify(context.Background(), "em-done")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cat != model.CategoryMeetingBooked {
		t.Fatalf("category = %q", cat)
	}
	if gw.callCount() != 0 {
		t.Fatalf("gateway calls = %d, want 0", gw.callCount())
	}
}

func TestClassifyRetriesTransientThenSucceeds(t *testing.T) {
	gw := &stubGateway{outcome: func(call int, _ classifier.Input) (model.Category, error) {
		if call <= 2 {
			return "", errclass.Transient("classifier", errors.New("flaky"))
		}
		return model.CategoryNotInterested, nil
	}}
	s, emails, _ := newFixture(t, gw, Config{MaxAttempts: 3})
	ids := seedEmails(t, emails, 1)

	cat, err := s.Classify(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cat != model.CategoryNotInterested {
		t.Fatalf("category = %q", cat)
	}
	stored, _ := emails.Get(context.Background(), ids[0])
	if stored.ClassificationAttempts != 3 {
		t.Fatalf("attempts = %d, want 3", stored.ClassificationAttempts)
	}
}

func TestClassifyParksEmailAfterAttemptBudget(t *testing.T) {
	gw := &stubGateway{outcome: func(int, classifier.Input) (model.Category, error) {
		return "", errclass.Transient("classifier", errors.New("down"))
	}}
	s, emails, notifier := newFixture(t, gw, Config{MaxAttempts: 3})
	ids := seedEmails(t, emails, 1)

	if _, err := s.Classify(context.Background(), ids[0]); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	stored, _ := emails.Get(context.Background(), ids[0])
	if stored.Category != model.CategoryUnclassifiable {
		t.Fatalf("category = %q, want %q", stored.Category, model.CategoryUnclassifiable)
	}
	if stored.ClassificationAttempts != 3 {
		t.Fatalf("attempts = %d, want 3", stored.ClassificationAttempts)
	}
	if notifier.count.Load() != 0 {
		t.Error("parked email must not notify")
	}
	// Parked emails leave the pending set.
	pending, err := emails.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0", len(pending))
	}
}

func TestClassifyStopsOnPermanentError(t *testing.T) {
	gw := &stubGateway{outcome: func(int, classifier.Input) (model.Category, error) {
		return "", errclass.Permanent("classifier", errors.New("bad key"))
	}}
	s, emails, _ := newFixture(t, gw, Config{MaxAttempts: 3})
	ids := seedEmails(t, emails, 1)

	if _, err := s.Classify(context.Background(), ids[0]); err == nil {
		t.Fatal("expected error")
	}
	if gw.callCount() != 1 {
		t.Fatalf("gateway calls = %d, want 1 (no retry on permanent)", gw.callCount())
	}
	stored, _ := emails.Get(context.Background(), ids[0])
	if !stored.Pending() {
		t.Fatalf("category = %q, want pending", stored.Category)
	}
	if stored.ClassificationAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", stored.ClassificationAttempts)
	}
}

func TestClassifyUnknownEmail(t *testing.T) {
	gw := &stubGateway{outcome: alwaysInterested}
	s, _, _ := newFixture(t, gw, Config{})
	if _, err := s.Classify(context.Background(), "nope"); !errors.Is(err, errclass.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClassifyAllCountsOutcomes(t *testing.T) {
	gw := &stubGateway{outcome: alwaysInterested}
	s, emails, notifier := newFixture(t, gw, Config{Concurrency: 2})
	seedEmails(t, emails, 3)

	res, err := s.ClassifyAll(context.Background())
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if res.Attempted != 3 || res.Succeeded != 3 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if notifier.count.Load() != 3 {
		t.Fatalf("notifications = %d, want 3", notifier.count.Load())
	}

	// A second batch finds nothing pending.
	res, err = s.ClassifyAll(context.Background())
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if res.Attempted != 0 {
		t.Fatalf("second batch attempted = %d, want 0", res.Attempted)
	}
}

func TestClassifyAllMixedOutcomes(t *testing.T) {
	gw := &stubGateway{outcome: func(_ int, in classifier.Input) (model.Category, error) {
		if in.Subject == "message 1" {
			return "", errclass.Permanent("classifier", errors.New("malformed"))
		}
		return model.CategoryOutOfOffice, nil
	}}
	s, emails, _ := newFixture(t, gw, Config{})
	seedEmails(t, emails, 3)

	res, err := s.ClassifyAll(context.Background())
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if res.Attempted != 3 || res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
}
