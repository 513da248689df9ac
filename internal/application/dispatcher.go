package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// DispatchResult counts per-backend outcomes for one event.
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatcher fans a change event out to every configured notifier.
// It never touches run state; delivery outcome does not affect whether a
// change counts as processed.
type Dispatcher struct {
	notifiers []driven.Notifier
	timeout   time.Duration
}

// NewDispatcher creates a Dispatcher. timeout bounds each individual send;
// zero disables the per-send deadline.
func NewDispatcher(notifiers []driven.Notifier, timeout time.Duration) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Backends returns the number of configured notifiers.
func (d *Dispatcher) Backends() int {
	return len(d.notifiers)
}

// Dispatch formats ev and sends it through every backend concurrently. A
// failing or panicking backend does not affect the others.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.ChangeEvent) DispatchResult {
	return d.Broadcast(ctx, FormatNotification(ev), "repo", ev.Repository, "kind", string(ev.Kind))
}

// Broadcast sends n through every backend. logAttrs are appended to each log line.
func (d *Dispatcher) Broadcast(ctx context.Context, n model.Notification, logAttrs ...any) DispatchResult {
	results := make([]bool, len(d.notifiers))

	var wg sync.WaitGroup
	for i, notifier := range d.notifiers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.send(ctx, notifier, n, logAttrs)
		}()
	}
	wg.Wait()

	var res DispatchResult
	for _, ok := range results {
		if ok {
			res.Sent++
		} else {
			res.Failed++
		}
	}
	return res
}

func (d *Dispatcher) send(ctx context.Context, notifier driven.Notifier, n model.Notification, logAttrs []any) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			slog.Error("notifier panicked", append([]any{"backend", notifier.Name(), "panic", v}, logAttrs...)...)
			ok = false
		}
	}()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ok = notifier.Send(ctx, n)
	if !ok {
		slog.Warn("notification not delivered", append([]any{"backend", notifier.Name()}, logAttrs...)...)
	}
	return ok
}
