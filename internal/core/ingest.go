package core

// ingest.go turns an upload or demo request into a validated batch.
//
// Ingest is the synchronous contract. Submit runs Ingest on a goroutine
// keyed by a monotonically increasing request id: submitting cancels the
// previous request, and only the latest request's completion may apply
// its batch. Superseded completions are dropped without touching state.
//
// Synchronous callers use IngestAndApply, which claims a request id the
// same way, so a sync ingest and an async one can never both apply.
//
// Lock order: Ingester.mu is held while apply runs, so apply may take the
// caller's own lock but the caller must never call Submit while holding it.
// Slow work such as saving history belongs in the follow-up apply returns,
// which runs after Ingester.mu is released.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// IngestConfig controls parsing, limits and the simulated processing delay.
type IngestConfig struct {
	Mode          ParseMode
	MaxFileSize   int64
	FileDelay     time.Duration
	DemoDelay     time.Duration
	DemoCount     int
	Timeout       time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
}

// DefaultIngestConfig mirrors the interactive behavior of the editor.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Mode:          ParseModeMock,
		MaxFileSize:   50 << 20,
		FileDelay:     time.Second,
		DemoDelay:     500 * time.Millisecond,
		DemoCount:     DefaultMockRecordCount,
		Timeout:       2 * time.Minute,
		MaxConcurrent: DefaultMaxConcurrentIngests,
		MaxWait:       DefaultMaxWaitTime,
	}
}

// ApplyFunc commits a completed batch. It runs under the ingester lock and
// only for the latest request. The returned follow-up, if any, runs after
// the lock is released.
type ApplyFunc func(ValidatedBatch) (after func())

// Ingester parses and validates sources.
type Ingester struct {
	cfg      IngestConfig
	limiter  *IngestLimiter
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	status IngestStatus
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithIngestObserver reports ingest outcomes to o.
func WithIngestObserver(o Observer) IngesterOption {
	return func(in *Ingester) {
		if o != nil {
			in.observer = o
		}
	}
}

// WithSleep replaces the delay function. Tests use it to remove the
// simulated processing time.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) IngesterOption {
	return func(in *Ingester) { in.sleep = fn }
}

// NewIngester creates an ingester. Call Close to stop pending work.
func NewIngester(cfg IngestConfig, opts ...IngesterOption) *Ingester {
	if cfg.DemoCount <= 0 {
		cfg.DemoCount = DefaultMockRecordCount
	}
	if cfg.Mode == "" {
		cfg.Mode = ParseModeMock
	}
	ctx, cancel := context.WithCancel(context.Background())
	in := &Ingester{
		cfg:        cfg,
		limiter:    NewIngestLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		observer:   nopObserver{},
		sleep:      sleepCtx,
		baseCtx:    ctx,
		baseCancel: cancel,
		status:     IngestStatus{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Check runs the synchronous admission checks: extension and size.
func (in *Ingester) Check(src Source) error {
	if src.Demo {
		return nil
	}
	if err := CheckExtension(src.Name); err != nil {
		return err
	}
	size := src.Size
	if n := int64(len(src.Data)); n > size {
		size = n
	}
	if in.cfg.MaxFileSize > 0 && size > in.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, in.cfg.MaxFileSize)
	}
	return nil
}

// Ingest parses and validates src.
func (in *Ingester) Ingest(ctx context.Context, src Source) (ValidatedBatch, error) {
	if err := in.Check(src); err != nil {
		return ValidatedBatch{}, err
	}

	if err := in.limiter.Acquire(ctx); err != nil {
		return ValidatedBatch{}, err
	}
	defer in.limiter.Release()

	delay, name := in.cfg.FileDelay, src.Name
	var parser Parser
	if src.Demo {
		delay, name = in.cfg.DemoDelay, DemoSourceName
		parser = MockParser{Count: in.cfg.DemoCount}
	} else {
		parser = ParserFor(src.Name, in.cfg.Mode, in.cfg.DemoCount)
	}

	if err := in.sleep(ctx, delay); err != nil {
		return ValidatedBatch{}, err
	}

	records, perrs, err := parser.Parse(ctx, src.Data)
	if err != nil {
		return ValidatedBatch{}, fmt.Errorf("parse %s: %w", name, err)
	}

	validated := ValidateRecords(records)
	invalid, warning := CountIssues(validated)
	return ValidatedBatch{
		SourceName:   name,
		Records:      validated,
		ParseErrors:  perrs,
		InvalidCount: invalid,
		WarningCount: warning,
	}, nil
}

// Submit starts an asynchronous ingest and returns its request id. Any
// earlier request still running is cancelled and its result discarded.
// apply runs only if this request is still the latest when it completes.
// Admission errors are returned synchronously and leave state unchanged.
func (in *Ingester) Submit(src Source, apply ApplyFunc) (uint64, error) {
	if err := in.Check(src); err != nil {
		return 0, err
	}

	id, ctx, cancel := in.claim(in.baseCtx, src)
	in.wg.Add(1)
	go in.run(ctx, cancel, id, src, apply)
	return id, nil
}

// IngestAndApply ingests src on the calling goroutine. It takes a request
// id like Submit, so it supersedes earlier requests and is superseded by
// later ones. A superseded request returns ErrIngestSuperseded and apply
// is not called.
func (in *Ingester) IngestAndApply(ctx context.Context, src Source, apply ApplyFunc) (uint64, ValidatedBatch, error) {
	if err := in.Check(src); err != nil {
		return 0, ValidatedBatch{}, err
	}

	id, reqCtx, cancel := in.claim(ctx, src)
	stop := context.AfterFunc(in.baseCtx, cancel)
	defer stop()
	defer cancel()

	in.wg.Add(1)
	defer in.wg.Done()

	start := time.Now()
	log := slog.With("request_id", id, "source", src.Name, "demo", src.Demo, "sync", true)

	batch, err := in.Ingest(reqCtx, src)
	if !in.complete(id, src, batch, err, start, apply, log) {
		return id, ValidatedBatch{}, fmt.Errorf("ingest %d: %w", id, ErrIngestSuperseded)
	}
	if err != nil {
		return id, ValidatedBatch{}, err
	}
	return id, batch, nil
}

// claim cancels the running request and registers a new one derived from
// parent.
func (in *Ingester) claim(parent context.Context, src Source) (uint64, context.Context, context.CancelFunc) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.cancel != nil {
		in.cancel()
	}
	in.seq++
	id := in.seq

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if in.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, in.cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	in.cancel = cancel
	in.status = IngestStatus{RequestID: id, Phase: PhaseProcessing, SourceName: src.Name}
	return id, ctx, cancel
}

func (in *Ingester) run(ctx context.Context, cancel context.CancelFunc, id uint64, src Source, apply ApplyFunc) {
	defer in.wg.Done()
	defer cancel()

	start := time.Now()
	log := slog.With("request_id", id, "source", src.Name, "demo", src.Demo)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in ingest", "panic", r)
			in.finish(id, IngestStatus{Phase: PhaseFailed, Error: "internal error"}, start)
		}
	}()

	batch, err := in.Ingest(ctx, src)
	in.complete(id, src, batch, err, start, apply, log)
}

// complete records the outcome of request id and applies its batch if it
// is still the latest. It reports false when the request was superseded.
func (in *Ingester) complete(id uint64, src Source, batch ValidatedBatch, err error, start time.Time, apply ApplyFunc, log *slog.Logger) bool {
	after, st, ok := in.commit(id, src, batch, err, start, apply)
	if !ok {
		log.Debug("ingest superseded", "latest", in.Latest())
		in.observer.ObserveIngest(PhaseSuperseded, 0, time.Since(start))
		return false
	}
	if after != nil {
		after()
	}

	in.observer.ObserveIngest(st.Phase, st.RecordCount, st.Duration)
	if err != nil {
		log.Warn("ingest failed", "error", err)
		return true
	}
	log.Info("ingest complete", "records", st.RecordCount, "invalid", batch.InvalidCount, "warning", batch.WarningCount, "duration_ms", st.Duration.Milliseconds())
	return true
}

func (in *Ingester) commit(id uint64, src Source, batch ValidatedBatch, err error, start time.Time, apply ApplyFunc) (after func(), st IngestStatus, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if id != in.seq {
		return nil, IngestStatus{}, false
	}
	in.cancel = nil

	if err != nil {
		in.status = IngestStatus{RequestID: id, Phase: PhaseFailed, SourceName: src.Name, Error: err.Error(), Duration: time.Since(start)}
		return nil, in.status, true
	}

	if apply != nil {
		after = apply(batch)
	}
	in.status = IngestStatus{RequestID: id, Phase: PhaseComplete, SourceName: batch.SourceName, RecordCount: len(batch.Records), Duration: time.Since(start)}
	return after, in.status, true
}

func (in *Ingester) finish(id uint64, st IngestStatus, start time.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id != in.seq {
		return
	}
	in.cancel = nil
	st.RequestID = id
	st.Duration = time.Since(start)
	in.status = st
	in.observer.ObserveIngest(st.Phase, 0, st.Duration)
}

// Status returns the state of the latest request.
func (in *Ingester) Status() IngestStatus {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.status
}

// StatusOf returns the status of request id. Requests older than the
// latest report ErrIngestSuperseded.
func (in *Ingester) StatusOf(id uint64) (IngestStatus, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	switch {
	case id == 0 || id > in.seq:
		return IngestStatus{}, fmt.Errorf("ingest %d: %w", id, ErrRecordNotFound)
	case id < in.seq:
		return IngestStatus{RequestID: id, Phase: PhaseSuperseded}, fmt.Errorf("ingest %d: %w", id, ErrIngestSuperseded)
	}
	return in.status, nil
}

// Latest returns the id of the most recent request.
func (in *Ingester) Latest() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.seq
}

// CancelPending cancels the running request, if any. Its result is discarded.
func (in *Ingester) CancelPending() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.cancel == nil {
		return false
	}
	in.cancel()
	in.cancel = nil
	in.seq++
	in.status = IngestStatus{RequestID: in.seq, Phase: PhaseIdle}
	return true
}

// Wait blocks until every submitted request has finished.
func (in *Ingester) Wait() {
	in.wg.Wait()
}

// Limiter exposes the parse limiter for status reporting.
func (in *Ingester) Limiter() *IngestLimiter { return in.limiter }

// Close cancels outstanding work and waits for it to stop or ctx to end.
func (in *Ingester) Close(ctx context.Context) error {
	in.baseCancel()
	done := make(chan struct{})
	go func() {
		in.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
