package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/file-organizer/internal/core/domain"
	"github.com/kirillkom/file-organizer/internal/core/ports"
)

const (
	DecisionScheduled = "scheduled"
	DecisionCoalesced = "coalesced"
	DecisionDirectory = "ignored_directory"
	DecisionRejected  = "rejected"
)

type DispatcherConfig struct {
	Workers     int
	SettleDelay time.Duration
}

// Dispatcher feeds backfill and live events into a bounded pool of pipeline
// runs. Events for one path arriving within the settle delay are coalesced
// and a path is never processed by two workers at once.
type Dispatcher struct {
	processor ports.FileProcessor
	observer  ports.PipelineObserver
	logger    *slog.Logger
	cfg       DispatcherConfig

	mu       sync.Mutex
	closed   bool
	pending  map[string]*pendingRun
	inFlight map[string]bool
	rerun    map[string]bool

	queue chan string
	done  chan struct{}
}

func NewDispatcher(processor ports.FileProcessor, observer ports.PipelineObserver, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		processor: processor,
		observer:  observer,
		logger:    logger,
		cfg:       cfg,
		pending:   make(map[string]*pendingRun),
		inFlight:  make(map[string]bool),
		rerun:     make(map[string]bool),
		queue:     make(chan string, cfg.Workers),
		done:      make(chan struct{}),
	}
}

// Run watches dir, replays its current entries and dispatches events until
// ctx is cancelled or the source stops. It returns once every started run
// has finished. Failing to start watching is returned as an error.
func (d *Dispatcher) Run(ctx context.Context, source ports.EventSource, dir string) error {
	events, err := source.Watch(ctx, dir)
	if err != nil {
		d.shutdown()
		return fmt.Errorf("start watching: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}

	existing, err := source.Backfill(ctx, dir)
	if err != nil {
		d.logger.Warn("backfill_failed", "dir", dir, "error", err)
	}
	for _, event := range existing {
		d.Submit(event)
	}
	d.logger.Info("watching", "dir", dir, "backfilled", len(existing), "workers", d.cfg.Workers)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case event, ok := <-events:
			if !ok {
				break loop
			}
			d.Submit(event)
		}
	}

	d.shutdown()
	err = g.Wait()
	d.logger.Info("dispatcher_stopped", "dir", dir)
	return err
}

// Submit accepts an event for processing. It reports false for directories
// and for events that arrive after shutdown began.
func (d *Dispatcher) Submit(event domain.FileEvent) bool {
	if event.IsDirectory {
		d.observer.ObserveEvent(event.Source, DecisionDirectory)
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	decision := d.scheduleLocked(event.Path)
	d.observer.ObserveEvent(event.Source, decision)
	if decision == DecisionRejected {
		d.logger.Debug("event_rejected", "path", event.Path)
		return false
	}
	return true
}

func (d *Dispatcher) scheduleLocked(path string) string {
	if d.closed {
		return DecisionRejected
	}
	if d.inFlight[path] {
		d.rerun[path] = true
		return DecisionCoalesced
	}
	if run, ok := d.pending[path]; ok {
		run.timer.Reset(d.cfg.SettleDelay)
		return DecisionCoalesced
	}
	run := &pendingRun{}
	run.timer = time.AfterFunc(d.cfg.SettleDelay, func() { d.fire(path, run) })
	d.pending[path] = run
	return DecisionScheduled
}

// fire hands a settled path to the worker pool. A timer that was re-armed
// after it had already started firing is stale and does nothing.
func (d *Dispatcher) fire(path string, run *pendingRun) {
	d.mu.Lock()
	if d.closed || d.pending[path] != run {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	d.inFlight[path] = true
	d.mu.Unlock()

	select {
	case d.queue <- path:
	case <-d.done:
		d.release(path, domain.Outcome{})
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-d.done:
			return
		case path := <-d.queue:
			d.observer.StartFile()
			outcome := d.processor.Process(ctx, path)
			d.observer.FinishFile(outcome)
			d.release(path, outcome)
		}
	}
}

// release clears the in-flight mark and schedules another run when the file
// changed while it was being processed and is still in place.
func (d *Dispatcher) release(path string, outcome domain.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.inFlight, path)
	again := d.rerun[path]
	delete(d.rerun, path)
	if again && outcome.Stage != domain.StageMoved {
		d.scheduleLocked(path)
	}
}

// shutdown stops accepting events and drops runs that have not started.
func (d *Dispatcher) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for path, run := range d.pending {
		run.timer.Stop()
		delete(d.pending, path)
	}
	close(d.done)
}

type pendingRun struct {
	timer *time.Timer
}

type noopObserver struct{}

func (noopObserver) ObserveEvent(domain.EventSource, string) {}
func (noopObserver) StartFile()                              {}
func (noopObserver) FinishFile(domain.Outcome)               {}
