package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/circuitbreaker"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
	defaultRetries = 2
	baseBackoff    = 500 * time.Millisecond
)

const classifySystemPrompt = `You are an email categorization assistant. Categorize emails into exactly one of these categories: "Interested", "Meeting Booked", "Not Interested", "Spam", "Out of Office". Respond with only the category name.`

// OpenAIConfig configures the chat-completions gateway.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAI talks to an OpenAI-compatible chat-completions API.
type OpenAI struct {
	cfg     OpenAIConfig
	client  *http.Client
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger

	backoff time.Duration // test hook
}

var _ Gateway = (*OpenAI)(nil)

func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultRetries
	}
	return &OpenAI{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:  logger,
		backoff: baseBackoff,
	}
}

func (g *OpenAI) Classify(ctx context.Context, in Input) (model.Category, error) {
	user := fmt.Sprintf("Subject: %s\n\nFrom: %s\n\nBody: %s", in.Subject, in.From, in.Body)
	content, err := g.complete(ctx, classifySystemPrompt, user, 0.3)
	if err != nil {
		return "", err
	}
	cat, err := model.ParseCategory(content)
	if err != nil {
		// An unrecognized value is a gateway failure, never stored.
		return "", errclass.Permanent("classify", err)
	}
	return cat, nil
}

func (g *OpenAI) SuggestReply(ctx context.Context, in Input, training model.TrainingData) (string, error) {
	system := replySystemPrompt(training)
	user := fmt.Sprintf(
		"Generate a reply to this email:\n\nFrom: %s\nSubject: %s\n\nEmail Body:\n%s\n\nPlease provide a suggested reply.",
		in.From, in.Subject, in.Body,
	)
	return g.complete(ctx, system, user, 0.7)
}

func replySystemPrompt(t model.TrainingData) string {
	productInfo := t.ProductInfo
	if productInfo == "" {
		productInfo = "Not provided"
	}
	agenda := t.OutreachAgenda
	if agenda == "" {
		agenda = "Not provided"
	}
	return fmt.Sprintf(`You are an AI email assistant. Generate professional, contextual email replies based on the training data provided.

Training Context:
Product/Service Info: %s
Outreach Agenda: %s

Generate a concise, professional reply that:
1. Addresses the sender's message appropriately
2. Uses information from the training context when relevant
3. Maintains a friendly but professional tone
4. Is clear and actionable`, productInfo, agenda)
}

// complete runs one chat completion with retry, exponential backoff and
// circuit breaking. Only transient failures (network, 5xx, rate limit) are
// retried; deterministic rejections surface immediately.
func (g *OpenAI) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if g.cfg.APIKey == "" {
		return "", fmt.Errorf("classifier api key: %w", errclass.ErrUnconfigured)
	}

	var lastErr error
	delay := g.backoff
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		var content string
		err := g.breaker.Execute(func() error {
			var callErr error
			content, callErr = g.call(ctx, system, user, temperature)
			return callErr
		})
		if err == nil {
			return content, nil
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			// fail fast instead of queue-building while the provider is
			// down
			return "", errclass.Transient("classifier", err)
		}
		if !errclass.IsTransient(err) {
			return "", err
		}
		lastErr = err
		g.logger.Warn("classifier call failed, will retry",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return "", errclass.Transient("classifier retries exhausted", lastErr)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *OpenAI) call(ctx context.Context, system, user string, temperature float64) (string, error) {
	started := time.Now()

	payload, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", errclass.Permanent("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", errclass.Permanent("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.RecordClassifierCall("chat_completions", "network_error", time.Since(started))
		return "", errclass.Transient("classifier request", err)
	}
	defer resp.Body.Close()

	metrics.RecordClassifierCall("chat_completions", strconv.Itoa(resp.StatusCode), time.Since(started))

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errclass.Transient("classifier", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	if resp.StatusCode != http.StatusOK {
		// auth failure or malformed request: deterministic, no retry
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errclass.Permanent("classifier", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errclass.Permanent("decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errclass.Permanent("classifier", errors.New("empty choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}
