package cart

import (
	"context"
	"reflect"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

const DefaultSyncInterval = 2 * time.Second

// Watcher re-reads a session cart on a fixed interval so edits made elsewhere
// (another tab, the cart service) show up during checkout.
type Watcher struct {
	reader    *Reader
	sessionID string
	interval  time.Duration
	onChange  func(domain.CartSnapshot)
}

func NewWatcher(reader *Reader, sessionID string, interval time.Duration, onChange func(domain.CartSnapshot)) *Watcher {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Watcher{
		reader:    reader,
		sessionID: sessionID,
		interval:  interval,
		onChange:  onChange,
	}
}

// Run blocks until ctx is done. onChange fires for the first read and then
// whenever the snapshot differs from the previous one.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last *domain.CartSnapshot
	sync := func() {
		snapshot, err := w.reader.Read(ctx, w.sessionID)
		if err != nil {
			if ctx.Err() == nil {
				logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "cart sync failed",
					zap.String("session_id", w.sessionID), zap.Error(err))
			}
			return
		}
		if last != nil && reflect.DeepEqual(*last, snapshot) {
			return
		}
		last = &snapshot
		w.onChange(snapshot)
	}

	sync()
	for {
		select {
		case <-ticker.C:
			sync()
		case <-ctx.Done():
			return
		}
	}
}
