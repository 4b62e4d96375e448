package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgeobj/dobject-go/config"
	"github.com/edgeobj/dobject-go/connection"
)

// Metrics tracks journal activity counters.
type Metrics struct {
	Inserts int64
	Errors  int64
	Flushes int64
	Dropped int64
}

// eventRow is the database representation of a connection event.
type eventRow struct {
	ObjectID   string
	EventType  string
	Payload    []byte
	Reason     string
	ReceivedAt time.Time
}

// Journal consumes connection events and writes them to the object_events table.
type Journal struct {
	cfg    config.JournalConfig
	logger *slog.Logger

	// Input from connection actors
	events chan connection.Event

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// New creates a Journal writing to the given pool.
func New(cfg config.JournalConfig, db *pgxpool.Pool, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		cfg:    cfg,
		db:     db,
		logger: logger.With("component", "journal"),
		events: make(chan connection.Event, cfg.BufferSize),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Events returns the channel to subscribe connection actors with.
// If the journal falls behind, actors drop events rather than block.
func (j *Journal) Events() chan<- connection.Event {
	return j.events
}

// Offer enqueues ev without blocking. It reports whether the event was
// accepted; rejects are counted in Stats().Dropped.
func (j *Journal) Offer(ev connection.Event) bool {
	select {
	case j.events <- ev:
		return true
	default:
		j.batchMu.Lock()
		j.metrics.Dropped++
		j.batchMu.Unlock()
		return false
	}
}

// Start begins consuming events and writing to the database.
func (j *Journal) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.flushTicker = time.NewTicker(j.cfg.FlushInterval)

	j.wg.Add(1)
	go j.consumeLoop()

	j.wg.Add(1)
	go j.flushLoop()

	j.logger.Info("journal started",
		"batch_size", j.cfg.BatchSize,
		"flush_interval", j.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the journal.
func (j *Journal) Stop(ctx context.Context) error {
	j.logger.Info("stopping journal")

	if j.cancel != nil {
		j.cancel()
	}

	if j.flushTicker != nil {
		j.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("journal stopped")
	case <-ctx.Done():
		j.logger.Warn("journal stop timed out")
	}

	// Drain anything still buffered, then final flush
	j.drain()
	j.flush()

	return nil
}

// Stats returns current metrics.
func (j *Journal) Stats() Metrics {
	j.batchMu.Lock()
	defer j.batchMu.Unlock()
	return j.metrics
}

// consumeLoop reads events and accumulates batches.
func (j *Journal) consumeLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case ev := <-j.events:
			j.handleEvent(ev)
		}
	}
}

// flushLoop periodically flushes the batch.
func (j *Journal) flushLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-j.flushTicker.C:
			j.flush()
		}
	}
}

// drain moves any events left in the input channel into the batch.
func (j *Journal) drain() {
	for {
		select {
		case ev := <-j.events:
			j.handleEvent(ev)
		default:
			return
		}
	}
}

// handleEvent transforms and adds an event to the batch.
func (j *Journal) handleEvent(ev connection.Event) {
	row := transform(ev)

	j.batchMu.Lock()
	j.batch = append(j.batch, row)
	shouldFlush := len(j.batch) >= j.cfg.BatchSize
	j.batchMu.Unlock()

	if shouldFlush {
		j.flush()
	}
}

// transform converts a connection event to an eventRow.
func transform(ev connection.Event) eventRow {
	row := eventRow{
		ObjectID:   ev.ObjectID,
		EventType:  ev.Type.String(),
		Payload:    ev.Data,
		ReceivedAt: ev.ReceivedAt,
	}
	if ev.Reason != nil {
		row.Reason = ev.Reason.Error()
	}
	return row
}

// flush writes the current batch to the database.
func (j *Journal) flush() {
	j.batchMu.Lock()
	if len(j.batch) == 0 {
		j.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := j.batch
	j.batch = make([]eventRow, 0, j.cfg.BatchSize)
	j.batchMu.Unlock()

	start := time.Now()

	if err := j.batchInsert(batch); err != nil {
		j.logger.Error("batch insert failed", "error", err, "count", len(batch))
		j.batchMu.Lock()
		j.metrics.Errors++
		j.batchMu.Unlock()
		return
	}

	j.batchMu.Lock()
	j.metrics.Inserts += int64(len(batch))
	j.metrics.Flushes++
	j.batchMu.Unlock()

	j.logger.Debug("flushed events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch.
func (j *Journal) batchInsert(rows []eventRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO object_events (object_id, event_type, payload, reason, received_at)
			VALUES ($1, $2, $3, $4, $5)
		`, r.ObjectID, r.EventType, r.Payload, r.Reason, r.ReceivedAt)
	}

	// Stop uses a background context so the final flush still runs
	// after ctx is cancelled.
	ctx := context.Background()

	results := j.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
