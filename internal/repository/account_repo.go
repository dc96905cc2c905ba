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

const accountPrefix = "account:"

type AccountRepository struct {
	store kv.Store
}

func NewAccountRepository(store kv.Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	return r.put(ctx, a)
}

// Update persists the account under last-write-wins. The watermark and
// failure fields are owned by the account's sync worker; other writers must
// not touch them.
func (r *AccountRepository) Update(ctx context.Context, a *model.Account) error {
	return r.put(ctx, a)
}

func (r *AccountRepository) put(ctx context.Context, a *model.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal account %s: %w", a.ID, err)
	}
	return r.store.Set(ctx, accountPrefix+a.ID, data)
}

func (r *AccountRepository) Get(ctx context.Context, id string) (*model.Account, error) {
	data, err := r.store.Get(ctx, accountPrefix+id)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, errclass.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var a model.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal account %s: %w", id, err)
	}
	return &a, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, accountPrefix+id)
}

// List returns all accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	entries, err := r.store.ScanPrefix(ctx, accountPrefix)
	if err != nil {
		return nil, err
	}
	accounts := make([]model.Account, 0, len(entries))
	for _, e := range entries {
		var a model.Account
		if err := json.Unmarshal(e.Value, &a); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", e.Key, err)
		}
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}
