package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/kv"
)

const settingsKey = "settings"

type SettingsRepository struct {
	store kv.Store
}

func NewSettingsRepository(store kv.Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// Get returns the current settings record. An absent record is the zero
// value, not an error.
func (r *SettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	data, err := r.store.Get(ctx, settingsKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return model.Settings{}, nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	var s model.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// Update applies mutate to the current record and writes it back with a
// bumped version.
func (r *SettingsRepository) Update(ctx context.Context, mutate func(*model.Settings)) (model.Settings, error) {
	s, err := r.Get(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	mutate(&s)
	s.Version++
	data, err := json.Marshal(s)
	if err != nil {
		return model.Settings{}, fmt.Errorf("marshal settings: %w", err)
	}
	if err := r.store.Set(ctx, settingsKey, data); err != nil {
		return model.Settings{}, err
	}
	return s, nil
}
