package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/circuitbreaker"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func newTestGateway(t *testing.T, url string) *OpenAI {
	t.Helper()
	g := NewOpenAI(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		MaxRetries: 2,
	}, zap.NewNop())
	g.backoff = time.Millisecond
	return g
}

func TestClassifyParsesCategory(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, "  Interested \n")
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	cat, err := g.Classify(context.Background(), Input{From: "a@b.com", Subject: "Hello", Body: "body"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cat != model.CategoryInterested {
		t.Fatalf("category = %q, want %q", cat, model.CategoryInterested)
	}
	if gotBody.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", gotBody.Temperature)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", gotBody.Messages)
	}
}

func TestClassifyRejectsUnknownCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "Very Interested")
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	if _, err := g.Classify(context.Background(), Input{Subject: "x"}); err == nil {
		t.Fatal("expected error for unknown category")
	} else if errclass.IsTransient(err) {
		t.Fatalf("unknown category should be permanent, got %v", err)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "upstream sad", http.StatusBadGateway)
			return
		}
		chatReply(t, w, "Spam")
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	cat, err := g.Classify(context.Background(), Input{Subject: "x"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cat != model.CategorySpam {
		t.Fatalf("category = %q, want %q", cat, model.CategorySpam)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestCompleteDoesNotRetryAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Classify(context.Background(), Input{Subject: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errclass.IsTransient(err) {
		t.Fatalf("401 should be permanent, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestCompleteRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Classify(context.Background(), Input{Subject: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errclass.IsTransient(err) {
		t.Fatalf("429 should be transient, got %v", err)
	}
}

func TestCompleteFailsFastWhenBreakerOpen(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	// DefaultConfig opens after 5 consecutive failures; two exhausted
	// classify rounds of 3 attempts each cross the threshold.
	for i := 0; i < 2; i++ {
		if _, err := g.Classify(context.Background(), Input{Subject: "x"}); err == nil {
			t.Fatal("expected error while upstream is failing")
		}
	}
	before := calls.Load()
	_, err := g.Classify(context.Background(), Input{Subject: "x"})
	if err == nil {
		t.Fatal("expected error from open breaker")
	}
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if calls.Load() != before {
		t.Fatal("open breaker must not reach the upstream")
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	g := NewOpenAI(OpenAIConfig{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	_, err := g.Classify(context.Background(), Input{Subject: "x"})
	if !errors.Is(err, errclass.ErrUnconfigured) {
		t.Fatalf("expected ErrUnconfigured, got %v", err)
	}
}

func TestSuggestReplyUsesTrainingContext(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, "Thanks for reaching out!")
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	training := model.TrainingData{ProductInfo: "Widget Pro", OutreachAgenda: "Book demos"}
	reply, err := g.SuggestReply(context.Background(), Input{From: "a@b.com", Subject: "Hi", Body: "body"}, training)
	if err != nil {
		t.Fatalf("SuggestReply: %v", err)
	}
	if reply != "Thanks for reaching out!" {
		t.Fatalf("reply = %q", reply)
	}
	if gotBody.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", gotBody.Temperature)
	}
	sys := gotBody.Messages[0].Content
	if !strings.Contains(sys, "Widget Pro") || !strings.Contains(sys, "Book demos") {
		t.Errorf("system prompt missing training context: %q", sys)
	}
}
