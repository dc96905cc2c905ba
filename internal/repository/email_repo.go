package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/kv"
)

const emailPrefix = "email:"

type EmailRepository struct {
	store kv.Store
}

func NewEmailRepository(store kv.Store) *EmailRepository {
	return &EmailRepository{store: store}
}

// Put upserts the email. Deterministic IDs make replays converge on the
// same key.
func (r *EmailRepository) Put(ctx context.Context, e *model.Email) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal email %s: %w", e.ID, err)
	}
	return r.store.Set(ctx, emailPrefix+e.ID, data)
}

func (r *EmailRepository) Get(ctx context.Context, id string) (*model.Email, error) {
	data, err := r.store.Get(ctx, emailPrefix+id)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("email %s: %w", id, errclass.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var e model.Email
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal email %s: %w", id, err)
	}
	return &e, nil
}

func (r *EmailRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, emailPrefix+id)
}

// List returns every stored email, newest first.
func (r *EmailRepository) List(ctx context.Context) ([]model.Email, error) {
	emails, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(emails, func(i, j int) bool {
		return emails[i].ReceivedAt.After(emails[j].ReceivedAt)
	})
	return emails, nil
}

// ListPending returns the emails still awaiting classification, oldest
// first for scheduling predictability.
func (r *EmailRepository) ListPending(ctx context.Context) ([]model.Email, error) {
	all, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, e := range all {
		if e.Pending() {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ReceivedAt.Before(pending[j].ReceivedAt)
	})
	return pending, nil
}

func (r *EmailRepository) scan(ctx context.Context) ([]model.Email, error) {
	entries, err := r.store.ScanPrefix(ctx, emailPrefix)
	if err != nil {
		return nil, err
	}
	emails := make([]model.Email, 0, len(entries))
	for _, entry := range entries {
		var e model.Email
		if err := json.Unmarshal(entry.Value, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", entry.Key, err)
		}
		emails = append(emails, e)
	}
	return emails, nil
}
