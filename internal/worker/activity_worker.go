package worker

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"smartexpense/internal/amqp"
)

// ActivityWorker consumes expense activity events and keeps per-action counters.
type ActivityWorker struct {
	mu       sync.Mutex
	counts   map[string]int64
	bySource map[string]int64
	last     time.Time
	logger   *slog.Logger
}

// Stats is a point-in-time copy of the worker counters.
type Stats struct {
	Total    int64
	ByAction map[string]int64
	BySource map[string]int64
	LastSeen time.Time
}

func NewActivityWorker(logger *slog.Logger) *ActivityWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityWorker{
		counts:   make(map[string]int64),
		bySource: make(map[string]int64),
		logger:   logger.With("component", "worker"),
	}
}

// HandleActivity records one event. It never fails, so deliveries are always acked.
func (w *ActivityWorker) HandleActivity(ctx context.Context, msg *amqp.ExpenseActivityMessage) error {
	w.mu.Lock()
	w.counts[msg.Action]++
	w.bySource[msg.Source]++
	if msg.Timestamp.After(w.last) {
		w.last = msg.Timestamp
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Expense activity",
		"action", msg.Action,
		"expense_id", msg.ExpenseID,
		"category_id", msg.CategoryID,
		"amount", msg.Amount,
		"date", msg.Date,
		"source", msg.Source,
		"timestamp", msg.Timestamp)
	return nil
}

func (w *ActivityWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Stats{
		ByAction: maps.Clone(w.counts),
		BySource: maps.Clone(w.bySource),
		LastSeen: w.last,
	}
	for _, n := range w.counts {
		s.Total += n
	}
	return s
}

// RunSummary logs the counters every interval until ctx is done.
func (w *ActivityWorker) RunSummary(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logSummary(context.Background())
			return
		case <-ticker.C:
			w.logSummary(ctx)
		}
	}
}

func (w *ActivityWorker) logSummary(ctx context.Context) {
	s := w.Stats()
	w.logger.InfoContext(ctx, "Activity summary",
		"total", s.Total,
		"created", s.ByAction[amqp.ActionCreated],
		"updated", s.ByAction[amqp.ActionUpdated],
		"deleted", s.ByAction[amqp.ActionDeleted],
		"last_seen", s.LastSeen)
}
