package examsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/rs/zerolog"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	errs  []error // per-call script, nil = success
	calls int
}

func (f *scriptedFetcher) FetchNotifications(context.Context) ([]model.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.calls < len(f.errs) {
		err = f.errs[f.calls]
	}
	f.calls++
	if err != nil {
		return nil, 0, err
	}
	return []model.Notification{{Title: "t"}}, 1, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPollerDeliversUpdates(t *testing.T) {
	fetcher := &scriptedFetcher{}

	var mu sync.Mutex
	updates := 0
	poller := NewNotificationPoller(fetcher, 5*time.Millisecond, func(ns []model.Notification, unread int) {
		mu.Lock()
		defer mu.Unlock()
		updates++
		if len(ns) != 1 || unread != 1 {
			t.Errorf("unexpected update: %d notifications, %d unread", len(ns), unread)
		}
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if updates == 0 {
		t.Error("expected at least one update")
	}
}

func TestPollerStopsAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &scriptedFetcher{errs: []error{boom, boom, boom, boom, boom}}

	poller := NewNotificationPoller(fetcher, time.Millisecond, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after repeated failures")
	}

	if got := fetcher.callCount(); got != DefaultMaxPollFailures {
		t.Errorf("fetch calls = %d, want %d", got, DefaultMaxPollFailures)
	}
}

func TestPollerResetsFailureCountOnSuccess(t *testing.T) {
	boom := errors.New("boom")
	// Two failures, a success, then two more failures: never three in a row.
	fetcher := &scriptedFetcher{errs: []error{boom, boom, nil, boom, boom}}

	poller := NewNotificationPoller(fetcher, time.Millisecond, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	if got := fetcher.callCount(); got < 6 {
		t.Errorf("fetch calls = %d, want the poller to outlive the scripted errors", got)
	}
}
