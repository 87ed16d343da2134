package examsession

import (
	"context"
	"time"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/rs/zerolog"
)

// DefaultMaxPollFailures is how many consecutive fetch errors the poller
// tolerates before giving up.
const DefaultMaxPollFailures = 3

// NotificationFetcher pulls the student's notification feed from the server.
type NotificationFetcher interface {
	FetchNotifications(ctx context.Context) ([]model.Notification, int, error)
}

// NotificationPoller polls the feed on a fixed interval and pushes updates to
// a callback. A run stops on context cancellation or after too many
// consecutive failures; transient errors are absorbed silently in between.
type NotificationPoller struct {
	fetcher     NotificationFetcher
	interval    time.Duration
	maxFailures int
	onUpdate    func(notifications []model.Notification, unread int)
	log         zerolog.Logger
}

// NewNotificationPoller creates a poller. onUpdate is invoked on every
// successful fetch, from the polling goroutine.
func NewNotificationPoller(
	fetcher NotificationFetcher,
	interval time.Duration,
	onUpdate func(notifications []model.Notification, unread int),
	log zerolog.Logger,
) *NotificationPoller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &NotificationPoller{
		fetcher:     fetcher,
		interval:    interval,
		maxFailures: DefaultMaxPollFailures,
		onUpdate:    onUpdate,
		log:         log.With().Str("component", "notification_poller").Logger(),
	}
}

// Run polls until the context is cancelled or the failure budget is spent.
// It blocks; callers run it in a goroutine.
func (p *NotificationPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notifications, unread, err := p.fetcher.FetchNotifications(ctx)
			if err != nil {
				failures++
				p.log.Warn().Err(err).Int("consecutive", failures).Msg("notification fetch failed")
				if failures >= p.maxFailures {
					p.log.Error().Msg("Notification polling stopped after repeated failures")
					return
				}
				continue
			}
			failures = 0
			if p.onUpdate != nil {
				p.onUpdate(notifications, unread)
			}
		}
	}
}
