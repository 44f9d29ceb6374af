package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrOutboxClosed is returned by Enqueue after Close.
var ErrOutboxClosed = errors.New("outbox closed")

// Write is one pending storage write. Writes sharing a Lane are applied in
// order; different lanes proceed independently. Apply returns the storage
// identifier; Reconcile is called with it once the write succeeds.
type Write struct {
	Lane      string
	TempID    string
	Apply     func(ctx context.Context) (string, error)
	Reconcile func(storageID string)
}

// OutboxOptions tunes retry behaviour.
type OutboxOptions struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	// AttemptTimeout bounds a single Apply call.
	AttemptTimeout time.Duration
	// MaxConcurrent caps Apply calls in flight across all lanes.
	MaxConcurrent int
	// Retryable reports whether a failed write should be attempted again.
	// Nil retries every error.
	Retryable func(error) bool
}

func (o OutboxOptions) withDefaults() OutboxOptions {
	if o.BaseDelay <= 0 {
		o.BaseDelay = 200 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 5 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 10 * time.Second
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 16
	}
	if o.Retryable == nil {
		o.Retryable = func(error) bool { return true }
	}
	return o
}

// Outbox drains pending writes with one worker per lane, retrying each with
// exponential backoff. A lane's worker exits once its queue is empty. Writes
// that exhaust their attempts are logged as unsynced and stay listed in Pending.
type Outbox struct {
	opts   OutboxOptions
	logger *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	slots   chan struct{}
	workers sync.WaitGroup

	mu       sync.Mutex
	lanes    map[string][]Write
	pending  map[string]struct{}
	unsynced map[string]error
	closed   bool
}

// NewOutbox builds an outbox. Workers start on demand.
func NewOutbox(opts OutboxOptions, logger *slog.Logger) *Outbox {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Outbox{
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(chan struct{}, opts.MaxConcurrent),
		lanes:    make(map[string][]Write),
		pending:  make(map[string]struct{}),
		unsynced: make(map[string]error),
	}
}

// Enqueue queues w without waiting for it to be applied.
func (o *Outbox) Enqueue(w Write) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOutboxClosed
	}
	queue, running := o.lanes[w.Lane]
	o.lanes[w.Lane] = append(queue, w)
	o.pending[w.TempID] = struct{}{}
	if !running {
		o.workers.Add(1)
		go o.drain(w.Lane)
	}
	return nil
}

// Pending lists temporary ids whose writes are queued, in flight or unsynced.
func (o *Outbox) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.pending))
	for id := range o.pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Unsynced returns the last error of every write that exhausted its attempts.
func (o *Outbox) Unsynced() map[string]error {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]error, len(o.unsynced))
	for id, err := range o.unsynced {
		out[id] = err
	}
	return out
}

// Close stops accepting writes and waits for every lane to drain. When ctx
// expires first, in-flight retries are abandoned and ctx's error is returned.
func (o *Outbox) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.cancel()
		<-done
		return ctx.Err()
	}
}

// drain applies the writes of one lane in order. The lane entry is removed
// under the lock once empty so a later Enqueue starts a new worker.
func (o *Outbox) drain(lane string) {
	defer o.workers.Done()
	for {
		o.mu.Lock()
		queue := o.lanes[lane]
		if len(queue) == 0 {
			delete(o.lanes, lane)
			o.mu.Unlock()
			return
		}
		w := queue[0]
		o.lanes[lane] = queue[1:]
		o.mu.Unlock()

		o.process(w)
	}
}

func (o *Outbox) process(w Write) {
	delay := o.opts.BaseDelay
	var err error
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		var id string
		id, err = o.apply(w)
		if err == nil {
			if w.Reconcile != nil {
				w.Reconcile(id)
			}
			o.mu.Lock()
			delete(o.pending, w.TempID)
			o.mu.Unlock()
			return
		}
		if !o.opts.Retryable(err) || attempt == o.opts.MaxAttempts {
			break
		}
		o.logger.Debug("outbox write failed, retrying",
			slog.String("temp_id", w.TempID),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", err),
		)
		if !o.sleep(delay) {
			break
		}
		delay *= 2
		if delay > o.opts.MaxDelay {
			delay = o.opts.MaxDelay
		}
	}

	o.mu.Lock()
	o.unsynced[w.TempID] = err
	o.mu.Unlock()
	o.logger.Warn("write left unsynced",
		slog.String("temp_id", w.TempID),
		slog.Any("error", err),
	)
}

// apply runs one attempt holding a concurrency slot and bounded by AttemptTimeout.
func (o *Outbox) apply(w Write) (string, error) {
	select {
	case o.slots <- struct{}{}:
	case <-o.ctx.Done():
		return "", o.ctx.Err()
	}
	defer func() { <-o.slots }()

	ctx, cancel := context.WithTimeout(o.ctx, o.opts.AttemptTimeout)
	defer cancel()
	return w.Apply(ctx)
}

func (o *Outbox) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-o.ctx.Done():
		return false
	}
}
