// Package scheduler drives the live-tracking simulation. It is purely a
// poller: the shipment engine knows nothing about timing, the scheduler
// knows nothing about lifecycle rules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/config"
)

// Advancer is the single engine operation the poller invokes.
type Advancer interface {
	AdvanceAll(ctx context.Context, step float64) (int64, error)
}

// Scheduler periodically advances all in-transit shipments.
type Scheduler struct {
	cron   *cron.Cron
	engine Advancer
	cfg    config.TrackingConfig
	logger *zap.Logger
}

// NewScheduler creates a tracking poller instance.
func NewScheduler(cfg config.TrackingConfig, engine Advancer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Seconds-resolution parser: the tracking cadence is sub-minute.
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:   c,
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// Start begins the tracking loop. A disabled config makes Start a no-op so
// callers can wire the scheduler unconditionally.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("live tracking disabled")
		return
	}

	spec := fmt.Sprintf("@every %ds", s.cfg.IntervalSeconds)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		s.logger.Error("failed to schedule tracking tick", zap.Error(err))
		return
	}

	s.logger.Info("live tracking started",
		zap.Int("interval_seconds", s.cfg.IntervalSeconds),
		zap.Float64("step", s.cfg.Step))
	s.cron.Start()
}

// Stop stops the tracking loop.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping tracking poller")
	s.cron.Stop()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	moved, err := s.engine.AdvanceAll(ctx, s.cfg.Step)
	if err != nil {
		s.logger.Error("tracking tick failed", zap.Error(err))
		return
	}
	if moved > 0 {
		s.logger.Debug("tracking tick", zap.Int64("moved", moved))
	}
}
