package notify

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/metrics"
)

// Dispatcher fans one email out to every configured sink. Sink URLs are read
// from settings on each dispatch so updates take effect without a restart.
type Dispatcher struct {
	settings *repository.SettingsRepository
	client   *http.Client
	logger   *zap.Logger
}

func NewDispatcher(settings *repository.SettingsRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Dispatch delivers to every configured sink. An unconfigured sink is a
// no-op, a failing one is logged and skipped. Dispatch never returns an
// error: notification failures must not fail classification.
func (d *Dispatcher) Dispatch(ctx context.Context, e model.Email) {
	cfg, err := d.settings.Get(ctx)
	if err != nil {
		d.logger.Warn("notification settings unavailable", zap.Error(err))
		return
	}

	var sinks []Sink
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, &SlackSink{URL: cfg.SlackWebhookURL, Client: d.client})
	}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, &WebhookSink{URL: cfg.WebhookURL, Client: d.client})
	}
	if len(sinks) == 0 {
		return
	}

	n := FromEmail(e)
	for _, sink := range sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			metrics.Notifications.WithLabelValues(sink.Name(), "failed").Inc()
			d.logger.Warn("notification delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("email_id", n.EmailID),
				zap.Error(err),
			)
			continue
		}
		metrics.Notifications.WithLabelValues(sink.Name(), "delivered").Inc()
		d.logger.Info("notification delivered",
			zap.String("sink", sink.Name()),
			zap.String("email_id", n.EmailID),
		)
	}
}
