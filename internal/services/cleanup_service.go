package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/storage"
)

// Forgetter drops cached per-SKU state, such as the last progress event.
type Forgetter interface {
	Forget(sku string)
}

type CleanupService struct {
	store   storage.Store
	ledgers ledger.Store
	forget  Forgetter
	log     *logger.Logger
	maxAge  time.Duration
	cron    *cron.Cron
}

func NewCleanupService(store storage.Store, ledgers ledger.Store, maxAge time.Duration, log *logger.Logger, forget Forgetter) *CleanupService {
	if log == nil {
		log = logger.Nop()
	}
	return &CleanupService{
		store:   store,
		ledgers: ledgers,
		forget:  forget,
		log:     log,
		maxAge:  maxAge,
	}
}

// CleanupSKU removes every stored object and the ledger for sku. Both
// deletions are attempted even if one fails.
func (s *CleanupService) CleanupSKU(ctx context.Context, sku string) error {
	ctx = s.log.WithSKU(ctx, sku)

	var errs error
	if err := s.ledgers.Delete(ctx, sku); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		errs = multierr.Append(errs, fmt.Errorf("failed to delete ledger: %w", err))
	}
	if err := s.store.DeleteSKU(ctx, sku); err != nil && !errors.Is(err, storage.ErrNotFound) {
		errs = multierr.Append(errs, fmt.Errorf("failed to delete files: %w", err))
	}
	if s.forget != nil {
		s.forget.Forget(sku)
	}

	if errs != nil {
		s.log.Error(ctx, "sku cleanup incomplete", errs)
		return errs
	}
	s.log.Info(ctx, "sku cleaned up")
	return nil
}

// PruneExpired removes SKU namespaces older than the configured max age.
// Stores that cannot enumerate by age are left alone.
func (s *CleanupService) PruneExpired(ctx context.Context) ([]string, error) {
	pruner, ok := s.store.(storage.Pruner)
	if !ok || s.maxAge <= 0 {
		return nil, nil
	}

	pruned, errs := pruner.PruneOlderThan(ctx, s.maxAge)
	for _, sku := range pruned {
		if err := s.ledgers.Delete(ctx, sku); err != nil && !errors.Is(err, ledger.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("failed to delete ledger for %s: %w", sku, err))
		}
		if s.forget != nil {
			s.forget.Forget(sku)
		}
	}

	if len(pruned) > 0 {
		s.log.Zerolog(ctx).Info().Strs("skus", pruned).Msg("pruned expired uploads")
	}
	if errs != nil {
		s.log.Warn(ctx, "prune finished with errors", errs)
	}
	return pruned, errs
}

// Start runs PruneExpired on the given cron schedule until Stop is called.
func (s *CleanupService) Start(schedule string) error {
	if s.cron != nil {
		return errors.New("cleanup scheduler already started")
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		_, _ = s.PruneExpired(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Zerolog(context.Background()).Info().Str("schedule", schedule).Dur("max_age", s.maxAge).Msg("cleanup scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running prune to finish or ctx
// to expire.
func (s *CleanupService) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.cron = nil
}
