// Package pipeline ties the stages together: account lifecycle, sync
// workers, the classification scheduler, and the periodic background cycle.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/classifier"
	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/internal/scheduler"
	"github.com/rishabh7970/OneBox-For-Emails/internal/syncer"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/secretbox"
)

const defaultIMAPPort = 993

// RegisterInput carries the fields needed to connect a mailbox.
type RegisterInput struct {
	Email       string `json:"email"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"name"`
}

type Coordinator struct {
	accounts *repository.AccountRepository
	emails   *repository.EmailRepository
	settings *repository.SettingsRepository
	worker   *syncer.Worker
	sched    *scheduler.Scheduler
	gateway  classifier.Gateway
	secrets  *secretbox.Box
	interval time.Duration
	logger   *zap.Logger
}

func New(
	accounts *repository.AccountRepository,
	emails *repository.EmailRepository,
	settings *repository.SettingsRepository,
	worker *syncer.Worker,
	sched *scheduler.Scheduler,
	gateway classifier.Gateway,
	secrets *secretbox.Box,
	interval time.Duration,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		accounts: accounts,
		emails:   emails,
		settings: settings,
		worker:   worker,
		sched:    sched,
		gateway:  gateway,
		secrets:  secrets,
		interval: interval,
		logger:   logger,
	}
}

// RegisterAccount connects a mailbox. The password is sealed before it
// touches the store.
func (c *Coordinator) RegisterAccount(ctx context.Context, in RegisterInput) (*model.Account, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if in.Port <= 0 {
		in.Port = defaultIMAPPort
	}
	if in.Username == "" {
		in.Username = in.Email
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Email
	}

	credential := ""
	if in.Password != "" {
		sealed, err := c.secrets.Seal(in.Password)
		if err != nil {
			return nil, fmt.Errorf("seal credential: %w", err)
		}
		credential = sealed
	}

	acct := &model.Account{
		ID:          uuid.NewString(),
		Email:       in.Email,
		Host:        in.Host,
		Port:        in.Port,
		Username:    in.Username,
		Credential:  credential,
		DisplayName: in.DisplayName,
		Status:      model.AccountActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	c.logger.Info("account registered",
		zap.String("account_id", acct.ID),
		zap.String("email", acct.Email),
	)
	redacted := acct.Redacted()
	return &redacted, nil
}

// ListAccounts returns all accounts with credentials redacted.
func (c *Coordinator) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := c.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i] = accounts[i].Redacted()
	}
	return accounts, nil
}

// DeleteAccount removes the account record. Its emails are kept: history
// survives with a dangling accountId.
func (c *Coordinator) DeleteAccount(ctx context.Context, id string) error {
	if _, err := c.accounts.Get(ctx, id); err != nil {
		return err
	}
	return c.accounts.Delete(ctx, id)
}

// ResetAccount reactivates a paused account and clears its failure streak.
func (c *Coordinator) ResetAccount(ctx context.Context, id string) (*model.Account, error) {
	acct, err := c.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	acct.Status = model.AccountActive
	acct.FailureStreak = 0
	if err := c.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	redacted := acct.Redacted()
	return &redacted, nil
}

func (c *Coordinator) SyncAccount(ctx context.Context, id string) (syncer.Result, error) {
	return c.worker.Sync(ctx, id)
}

// SyncAll runs one sync cycle per account concurrently. Per-account
// failures are logged, never aborting the rest of the fan-out.
func (c *Coordinator) SyncAll(ctx context.Context) error {
	accounts, err := c.accounts.List(ctx)
	if err != nil {
		return err
	}
	var wg sync.WaitGroup
	for _, acct := range accounts {
		if acct.Status != model.AccountActive {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := c.worker.Sync(ctx, id); err != nil {
				c.logger.Warn("account sync failed",
					zap.String("account_id", id),
					zap.Error(err),
				)
			}
		}(acct.ID)
	}
	wg.Wait()
	return nil
}

func (c *Coordinator) Classify(ctx context.Context, emailID string) (model.Category, error) {
	return c.sched.Classify(ctx, emailID)
}

func (c *Coordinator) ClassifyAll(ctx context.Context) (scheduler.BatchResult, error) {
	return c.sched.ClassifyAll(ctx)
}

// SuggestReply drafts a reply for the email, grounded on the stored
// training context.
func (c *Coordinator) SuggestReply(ctx context.Context, emailID string) (string, error) {
	e, err := c.emails.Get(ctx, emailID)
	if err != nil {
		return "", err
	}
	cfg, err := c.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	return c.gateway.SuggestReply(ctx, classifier.ReplyInput(*e), cfg.Training)
}

// Analytics computes the aggregate view by scanning all stored emails.
func (c *Coordinator) Analytics(ctx context.Context) (model.Analytics, error) {
	emails, err := c.emails.List(ctx)
	if err != nil {
		return model.Analytics{}, err
	}
	accounts, err := c.accounts.List(ctx)
	if err != nil {
		return model.Analytics{}, err
	}
	byAccountEmail := make(map[string]string, len(accounts))
	for _, a := range accounts {
		byAccountEmail[a.ID] = a.Email
	}

	out := model.Analytics{
		ByCategory: map[string]int{
			"interested":    0,
			"meetingBooked": 0,
			"notInterested": 0,
			"spam":          0,
			"outOfOffice":   0,
		},
		ByAccount: make(map[string]int),
	}
	for _, e := range emails {
		out.Total++
		if !e.IsRead {
			out.Unread++
		}
		if e.Pending() {
			out.Uncategorized++
		} else {
			out.Categorized++
			if key := categoryKey(e.Category); key != "" {
				out.ByCategory[key]++
			}
		}
		label := byAccountEmail[e.AccountID]
		if label == "" {
			label = e.AccountID
		}
		out.ByAccount[label]++
	}
	return out, nil
}

func categoryKey(c model.Category) string {
	switch c {
	case model.CategoryInterested:
		return "interested"
	case model.CategoryMeetingBooked:
		return "meetingBooked"
	case model.CategoryNotInterested:
		return "notInterested"
	case model.CategorySpam:
		return "spam"
	case model.CategoryOutOfOffice:
		return "outOfOffice"
	}
	return ""
}

// Run drives the background cycle: sync all accounts, then classify
// whatever is pending, every interval until ctx is done. A non-positive
// interval disables the loop.
func (c *Coordinator) Run(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cycle(ctx)
		}
	}
}

func (c *Coordinator) cycle(ctx context.Context) {
	if err := c.SyncAll(ctx); err != nil {
		c.logger.Warn("background sync failed", zap.Error(err))
	}
	if _, err := c.ClassifyAll(ctx); err != nil {
		c.logger.Warn("background classification failed", zap.Error(err))
	}
}

// FilterEmails applies the list filters over the newest-first email list.
func (c *Coordinator) FilterEmails(ctx context.Context, accountID, folder string, category model.Category, search string) ([]model.Email, error) {
	emails, err := c.emails.List(ctx)
	if err != nil {
		return nil, err
	}
	out := emails[:0]
	needle := strings.ToLower(search)
	for _, e := range emails {
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		if folder != "" && e.Folder != folder {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Subject), needle) &&
			!strings.Contains(strings.ToLower(e.From), needle) &&
			!strings.Contains(strings.ToLower(e.Body), needle) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
