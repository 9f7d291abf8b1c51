package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type expiryScanner interface {
	ScanExpiring(ctx context.Context, now time.Time) (int, error)
}

type exportCleaner interface {
	Cleanup(ttl time.Duration) ([]string, error)
}

type reminderRecorder interface {
	RecordExpiryReminders(count int)
}

// Config tunes the periodic expiry scan.
type Config struct {
	Interval  time.Duration
	ExportTTL time.Duration
}

// Scheduler periodically scans the register for submissions close to their
// expiry date and prunes stale export files. Only one replica runs a scan at
// a time, guarded by a Redis lock.
type Scheduler struct {
	scanner  expiryScanner
	exports  exportCleaner
	recorder reminderRecorder
	lock     Lock
	cfg      Config
	logger   *zap.Logger
}

// New constructs the scheduler. The exports cleaner and recorder are optional.
func New(scanner expiryScanner, exports exportCleaner, recorder reminderRecorder, lock Lock, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scanner:  scanner,
		exports:  exports,
		recorder: recorder,
		lock:     lock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, scanning once immediately and then on
// every interval tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single guarded scan pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			s.logger.Error("expiry scan lock", zap.Error(err))
			return
		}
		if !acquired {
			s.logger.Debug("expiry scan skipped, another replica holds the lock")
			return
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.logger.Warn("expiry scan lock release", zap.Error(err))
			}
		}()
	}

	created, err := s.scanner.ScanExpiring(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("expiry scan", zap.Error(err))
		return
	}
	if s.recorder != nil {
		s.recorder.RecordExpiryReminders(created)
	}
	s.logger.Info("expiry scan completed", zap.Int("reminders_created", created))

	if s.exports != nil {
		removed, err := s.exports.Cleanup(s.cfg.ExportTTL)
		if err != nil {
			s.logger.Warn("export cleanup", zap.Error(err))
			return
		}
		if len(removed) > 0 {
			s.logger.Info("export cleanup completed", zap.Int("removed", len(removed)))
		}
	}
}
