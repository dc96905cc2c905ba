package model

import "time"

// TrainingData grounds suggested replies: product context plus the outreach
// agenda the operator is running.
type TrainingData struct {
	ProductInfo    string    `json:"productInfo,omitempty"`
	OutreachAgenda string    `json:"outreachAgenda,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

// Settings is the single versioned configuration record. Dispatcher and
// suggest-reply read it fresh at the start of each invocation rather than
// holding ambient global state. Absence of a sink URL means that sink is a
// no-op, not an error.
type Settings struct {
	Version         int          `json:"version"`
	SlackWebhookURL string       `json:"slackWebhookUrl,omitempty"`
	WebhookURL      string       `json:"webhookUrl,omitempty"`
	Training        TrainingData `json:"trainingData,omitempty"`
}

// Analytics is the aggregate view computed by scanning all stored emails.
// O(n) over the mailbox — acceptable at this scale.
type Analytics struct {
	Total         int            `json:"total"`
	Unread        int            `json:"unread"`
	Categorized   int            `json:"categorized"`
	Uncategorized int            `json:"uncategorized"`
	ByCategory    map[string]int `json:"byCategory"`
	ByAccount     map[string]int `json:"byAccount"`
}
