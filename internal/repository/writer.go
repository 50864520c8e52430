package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Saver is the write half of a snapshot repository.
type Saver[T any] interface {
	Save(ctx context.Context, snap T) error
}

// AsyncWriter persists snapshots off the caller's path. Submissions
// coalesce: when writes fall behind only the newest snapshot is
// written. Failures are logged and never reported to the submitter.
type AsyncWriter[T any] struct {
	saver  Saver[T]
	logger *zap.Logger

	mu      sync.Mutex
	pending *T
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// NewAsyncWriter starts the background writer.
func NewAsyncWriter[T any](saver Saver[T], logger *zap.Logger) *AsyncWriter[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &AsyncWriter[T]{
		saver:  saver,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues snap for writing and returns immediately.
func (w *AsyncWriter[T]) Submit(snap T) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("snapshot dropped after close")
		return
	}
	w.pending = &snap
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

// Close flushes the pending snapshot and stops the writer.
func (w *AsyncWriter[T]) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()
	<-w.done
}

func (w *AsyncWriter[T]) run() {
	defer close(w.done)
	for range w.wake {
		w.flush()
	}
	w.flush()
}

func (w *AsyncWriter[T]) flush() {
	w.mu.Lock()
	snap := w.pending
	w.pending = nil
	w.mu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.saver.Save(ctx, *snap); err != nil {
		w.logger.Error("snapshot write failed", zap.Error(err))
	}
}
