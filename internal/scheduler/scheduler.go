package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"proptrack/server/config"
	"proptrack/server/internal/metrics"
	"proptrack/server/internal/telegram"
)

// Scheduler runs the periodic report job. Metrics are recomputed from
// raw sales on every run, so there is nothing to persist between runs.
type Scheduler struct {
	cron            *cron.Cron
	engine          *metrics.Engine
	registry        *config.SegmentRegistry
	telegramService *telegram.Service
	config          *config.Config
	logger          *logrus.Logger
}

// NewScheduler creates a scheduler wired to the metrics engine and the
// Telegram service.
func NewScheduler(
	engine *metrics.Engine,
	registry *config.SegmentRegistry,
	telegramService *telegram.Service,
	cfg *config.Config,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		engine:          engine,
		registry:        registry,
		telegramService: telegramService,
		config:          cfg,
		logger:          logger,
	}
}

// Start registers the report job and begins the cron loop.
func (s *Scheduler) Start() error {
	schedule := s.config.Report.Schedule

	if _, err := s.cron.AddFunc(schedule, s.runReportJob); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithField("schedule", schedule).Info("Report scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Report scheduler stopped")
}

// RunNow executes the report job immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runReportJob()
}

func (s *Scheduler) runReportJob() {
	now := time.Now()
	s.logger.Info("Running scheduled report job")

	computed := s.engine.ComputeAll(time.Time{})
	data := telegram.BuildReportData(s.config, s.registry, computed, now)

	report := telegram.FormatReport(s.registry, data)
	if err := s.telegramService.SendMessage(report); err != nil {
		s.logger.WithError(err).Error("Failed to send report")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"segments":    len(computed),
		"can_compute": data.Tracker.CanCompute,
	}).Info("Report job completed")
}
