package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// replyWorker completes streaming assistant replies after a delay.
type replyWorker struct {
	store  *sessionStore
	logger *slog.Logger
	delay  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newReplyWorker(store *sessionStore, logger *slog.Logger, delay time.Duration) *replyWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &replyWorker{store: store, logger: logger, delay: delay, ctx: ctx, cancel: cancel}
}

// Enqueue schedules completion of messageID. After Stop it does nothing.
func (w *replyWorker) Enqueue(sessionID, messageID string) {
	if w.ctx.Err() != nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		timer := time.NewTimer(w.delay)
		defer timer.Stop()
		select {
		case <-w.ctx.Done():
			return
		case <-timer.C:
		}

		completed, err := w.store.completeMessage(w.ctx, messageID)
		if err != nil {
			w.logger.Error("Failed to complete reply",
				slog.String("session_id", sessionID),
				slog.String("message_id", messageID),
				slog.Any("error", err),
			)
			return
		}
		if completed {
			w.logger.Debug("Reply completed", slog.String("session_id", sessionID), slog.String("message_id", messageID))
		}
	}()
}

// Stop cancels pending completions and waits for running ones.
func (w *replyWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}
