package model

import "time"

// AccountStatus is the lifecycle state of a connected mailbox.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountDisabled AccountStatus = "disabled"
	// AccountError: sync is paused after repeated consecutive failures (or
	// a permanent rejection) until a manual reset.
	AccountError AccountStatus = "error"
)

// Account is one connected mailbox. It is owned by the pipeline
// coordinator; the sync watermark is mutated only by the account's own sync
// worker. Deleting an account does not cascade to its emails — history is
// kept with a dangling accountId on purpose.
type Account struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`

	// Credential is the sealed (encrypted) password. It never leaves the
	// store in plain form to any consumer outside the sync worker.
	Credential string `json:"credential,omitempty"`

	DisplayName string        `json:"name"`
	Status      AccountStatus `json:"status"`

	// SyncWatermark is monotonically non-decreasing and advances only
	// after the corresponding messages are durably persisted.
	SyncWatermark time.Time  `json:"syncWatermark"`
	LastSyncAt    *time.Time `json:"lastSync,omitempty"`

	// FailureStreak counts consecutive sync failures; reset on success.
	FailureStreak int `json:"failureStreak,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Redacted returns a copy safe to hand to consumers outside the sync
// worker.
func (a Account) Redacted() Account {
	a.Credential = ""
	return a
}
