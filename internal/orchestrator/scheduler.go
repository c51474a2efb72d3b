// Package orchestrator runs a SKU's uploaded files through background removal
// in bounded windows and records one result per file.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/metrics"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/naming"
	"photo-sku-backend/internal/photoroom"
	"photo-sku-backend/internal/storage"
)

const DefaultConcurrency = 3

var (
	ErrValidation = errors.New("invalid batch")
	ErrCredential = errors.New("background removal credential rejected")
)

// Scheduler drives batches through a Remover. One Scheduler may run several
// batches at once; they share its concurrency cap.
type Scheduler struct {
	remover  photoroom.Remover
	store    storage.Store
	ledgers  ledger.Store
	observer Observer
	log      *logger.Logger
	metrics  *metrics.BatchMetrics
	now      func() time.Time

	limit    int
	sem      *semaphore.Weighted
	inflight atomic.Int64
}

type Option func(*Scheduler)

// WithConcurrency sets both the window size and the in-flight cap.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func WithMetrics(m *metrics.BatchMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(remover photoroom.Remover, store storage.Store, ledgers ledger.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		remover: remover,
		store:   store,
		ledgers: ledgers,
		log:     logger.Nop(),
		now:     time.Now,
		limit:   DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sem = semaphore.NewWeighted(int64(s.limit))
	return s
}

func (s *Scheduler) Concurrency() int {
	return s.limit
}

// InFlight returns the number of images currently held by the remover.
func (s *Scheduler) InFlight() int64 {
	return s.inflight.Load()
}

// job is one item waiting for a terminal result. seq is zero until the item
// is dequeued; slot is its index in the batch's result list.
type job struct {
	item models.MediaItem
	seq  int
	slot int
}

type batch struct {
	sku       string
	results   []models.ProcessResult
	videos    []job
	images    []job
	nextSeq   int
	createdAt time.Time
	completed atomic.Int64
}

// Process runs a fresh batch: videos are numbered first and skipped, then
// images go through the remover in windows. Only validation and credential
// failures are returned as errors; every other failure is recorded on its item.
// A credential failure still returns the full ledger.
func (s *Scheduler) Process(ctx context.Context, sku string, items []models.MediaItem) (*models.BatchLedger, error) {
	if err := validate(sku, items); err != nil {
		return nil, err
	}

	b := &batch{
		sku:       sku,
		results:   make([]models.ProcessResult, len(items)),
		createdAt: s.now(),
	}

	var videos, images []models.MediaItem
	for _, item := range items {
		if item.Kind == models.KindVideo {
			videos = append(videos, item)
		} else {
			images = append(images, item)
		}
	}
	for _, item := range videos {
		b.videos = append(b.videos, job{item: item, slot: len(b.videos)})
	}
	for i, item := range images {
		b.images = append(b.images, job{item: item, slot: len(videos) + i})
	}

	return s.run(ctx, b)
}

// Retry re-runs only the errored items of the SKU's stored ledger. Done and
// skipped results are kept as they are and cost no remote calls; retried
// items keep their id, original name and sequence number.
func (s *Scheduler) Retry(ctx context.Context, sku string) (*models.BatchLedger, error) {
	if !naming.ValidSKU(sku) {
		return nil, fmt.Errorf("%w: sku %q is not valid", ErrValidation, sku)
	}
	prior, err := s.ledgers.Read(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if len(prior.Failed()) == 0 {
		return prior, nil
	}

	b := &batch{
		sku:       sku,
		results:   append([]models.ProcessResult(nil), prior.Results...),
		nextSeq:   prior.MaxSequence(),
		createdAt: prior.CreatedAt,
	}
	for i, r := range b.results {
		if r.Status != models.StatusError {
			b.completed.Add(1)
			continue
		}
		j := job{item: r.Item(), seq: r.Sequence, slot: i}
		if r.Kind == models.KindVideo {
			b.videos = append(b.videos, j)
		} else {
			b.images = append(b.images, j)
		}
	}
	return s.run(ctx, b)
}

func (s *Scheduler) run(ctx context.Context, b *batch) (*models.BatchLedger, error) {
	started := s.now()
	ctx = s.log.WithSKU(ctx, b.sku)
	s.log.Info(ctx, fmt.Sprintf("batch started: %d videos, %d images", len(b.videos), len(b.images)))
	s.emit(b, models.ProgressEvent{Type: models.EventBatchStarted})

	for _, j := range b.videos {
		s.finish(ctx, b, s.skipVideo(b, j))
	}

	abortErr := s.runImages(ctx, b)

	l := &models.BatchLedger{
		SKU:       b.sku,
		Results:   b.results,
		CreatedAt: b.createdAt,
		UpdatedAt: s.now(),
	}
	s.metrics.ObserveBatch(s.now().Sub(started))

	if err := s.ledgers.Write(ctx, l); err != nil {
		s.log.Error(ctx, "failed to write ledger", err)
		s.emit(b, models.ProgressEvent{Type: models.EventBatchFailed, Error: err.Error()})
		return l, fmt.Errorf("failed to write ledger: %w", err)
	}

	if abortErr != nil {
		s.emit(b, models.ProgressEvent{Type: models.EventBatchFailed, Error: abortErr.Error()})
		return l, fmt.Errorf("%w: %w", ErrCredential, abortErr)
	}

	counts := l.Counts()
	s.log.Info(ctx, fmt.Sprintf("batch finished: %d done, %d error, %d skipped", counts.Done, counts.Error, counts.Skipped))
	s.emit(b, models.ProgressEvent{Type: models.EventBatchCompleted})
	return l, nil
}

// runImages launches windows of at most cap images and waits for each window
// to settle before starting the next. A credential failure stops further
// windows; the items left behind are recorded as errors.
func (s *Scheduler) runImages(ctx context.Context, b *batch) error {
	for start := 0; start < len(b.images); start += s.limit {
		end := min(start+s.limit, len(b.images))
		window := b.images[start:end]
		for i := range window {
			if window[i].seq == 0 {
				b.nextSeq++
				window[i].seq = b.nextSeq
			}
		}

		var g errgroup.Group
		for _, j := range window {
			g.Go(func() error {
				res, err := s.processImage(ctx, b, j)
				b.results[j.slot] = res
				s.finish(ctx, b, res)
				if photoroom.IsUnauthorized(err) {
					return err
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			s.log.Error(ctx, "credential rejected, aborting remaining windows", err)
			s.abort(ctx, b, b.images[end:], err)
			return err
		}
	}
	return nil
}

func (s *Scheduler) abort(ctx context.Context, b *batch, rest []job, cause error) {
	for _, j := range rest {
		if j.seq == 0 {
			b.nextSeq++
			j.seq = b.nextSeq
		}
		res := newResult(j)
		res.FinalName, _ = naming.AssignName(b.sku, j.seq, j.item.Kind, j.item.OriginalName)
		res.Status = models.StatusError
		res.Error = "batch aborted: " + cause.Error()
		b.results[j.slot] = res
		s.finish(ctx, b, res)
	}
}

func (s *Scheduler) skipVideo(b *batch, j job) models.ProcessResult {
	if j.seq == 0 {
		b.nextSeq++
		j.seq = b.nextSeq
	}
	res := newResult(j)
	name, err := naming.AssignName(b.sku, j.seq, models.KindVideo, j.item.OriginalName)
	if err != nil {
		res.Status = models.StatusError
		res.Error = err.Error()
	} else {
		res.FinalName = name
		res.Status = models.StatusSkipped
	}
	b.results[j.slot] = res
	return res
}

// processImage returns the item's result and, for remover failures, the
// remover's error so the caller can tell credential failures apart.
func (s *Scheduler) processImage(ctx context.Context, b *batch, j job) (models.ProcessResult, error) {
	res := newResult(j)
	name, err := naming.AssignName(b.sku, j.seq, models.KindImage, j.item.OriginalName)
	if err != nil {
		return failed(res, err), nil
	}
	res.FinalName = name

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return failed(res, err), nil
	}
	defer s.sem.Release(1)
	s.metrics.SetInflight(s.inflight.Add(1))
	defer func() { s.metrics.SetInflight(s.inflight.Add(-1)) }()

	s.emit(b, models.ProgressEvent{Type: models.EventItemProcessing, ItemID: res.ID, FinalName: name})

	data, err := s.store.Read(ctx, j.item.SourceLocation)
	if err != nil {
		return failed(res, fmt.Errorf("failed to read original: %w", err)), nil
	}

	edited, err := s.remover.RemoveBackground(ctx, data)
	if err != nil {
		return failed(res, err), err
	}

	location, err := s.store.Write(ctx, b.sku, name, edited, "image/jpeg")
	if err != nil {
		return failed(res, fmt.Errorf("failed to store result: %w", err)), nil
	}

	res.Status = models.StatusDone
	res.OutputLocation = location
	res.PreviewURL = s.store.PublicURL(b.sku, name)

	if j.item.SourceLocation != location {
		if err := s.store.Delete(ctx, j.item.SourceLocation); err != nil {
			s.log.Warn(s.log.WithField(ctx, "item_id", res.ID), "failed to delete original", err)
		}
	}
	return res, nil
}

func (s *Scheduler) finish(ctx context.Context, b *batch, res models.ProcessResult) {
	b.completed.Add(1)
	s.metrics.IncItem(string(res.Status))

	ev := models.ProgressEvent{ItemID: res.ID, FinalName: res.FinalName}
	switch res.Status {
	case models.StatusDone:
		ev.Type = models.EventItemDone
	case models.StatusSkipped:
		ev.Type = models.EventItemSkipped
	default:
		ev.Type = models.EventItemError
		ev.Error = res.Error
		s.log.Warn(s.log.WithFields(ctx, map[string]any{"item_id": res.ID, "final_name": res.FinalName}),
			"item failed", errors.New(res.Error))
	}
	s.emit(b, ev)
}

func (s *Scheduler) emit(b *batch, ev models.ProgressEvent) {
	if s.observer == nil {
		return
	}
	ev.SKU = b.sku
	ev.Total = len(b.results)
	ev.Completed = int(b.completed.Load())
	ev.Timestamp = s.now()
	s.observer.Publish(ev)
}

func newResult(j job) models.ProcessResult {
	return models.ProcessResult{
		ID:             j.item.ID,
		OriginalName:   j.item.OriginalName,
		Kind:           j.item.Kind,
		Sequence:       j.seq,
		SourceLocation: j.item.SourceLocation,
	}
}

func failed(res models.ProcessResult, err error) models.ProcessResult {
	res.Status = models.StatusError
	res.Error = err.Error()
	res.OutputLocation = ""
	res.PreviewURL = ""
	return res
}

func validate(sku string, items []models.MediaItem) error {
	if sku == "" {
		return fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if !naming.ValidSKU(sku) {
		return fmt.Errorf("%w: sku %q is not valid", ErrValidation, sku)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: no files to process", ErrValidation)
	}
	seen := make(map[string]struct{}, len(items))
	sources := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: file %d has no id", ErrValidation, i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate file id %q", ErrValidation, item.ID)
		}
		seen[item.ID] = struct{}{}
		if !item.Kind.Valid() {
			return fmt.Errorf("%w: file %q has unknown type %q", ErrValidation, item.ID, item.Kind)
		}
		if item.SourceLocation == "" {
			return fmt.Errorf("%w: file %q has no source location", ErrValidation, item.ID)
		}
		srcSKU, name, err := storage.SplitLocation(item.SourceLocation)
		if err != nil {
			return fmt.Errorf("%w: file %q: %w", ErrValidation, item.ID, err)
		}
		if srcSKU != sku || name == ledger.FileName(sku) {
			return fmt.Errorf("%w: file %q source %q is outside sku %q", ErrValidation, item.ID, item.SourceLocation, sku)
		}
		if _, dup := sources[item.SourceLocation]; dup {
			return fmt.Errorf("%w: duplicate source location %q", ErrValidation, item.SourceLocation)
		}
		sources[item.SourceLocation] = struct{}{}
	}
	return nil
}
