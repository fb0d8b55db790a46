package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// Reporter builds the weekly summary.
type Reporter interface {
	WeeklySummary(ctx context.Context) (models.ReportSummary, error)
}

// Archive stores generated summaries.
type Archive interface {
	SaveReportSnapshot(ctx context.Context, summary models.ReportSummary) error
}

// Exporter writes summaries to the reports workbook.
type Exporter interface {
	ExportSummary(ctx context.Context, summary models.ReportSummary) error
	ExportedPeriods(ctx context.Context) ([]string, error)
}

// Messenger delivers summaries and statements.
type Messenger interface {
	SendSummary(ctx context.Context, summary models.ReportSummary) error
	SendStatements(ctx context.Context, summary models.ReportSummary, farmers []models.Farmer) (int, error)
}

// Roster supplies farmer phone numbers for statements.
type Roster interface {
	Farmers(ctx context.Context) ([]models.Farmer, error)
}

// Sinks are the optional destinations of the weekly job. Nil sinks are skipped.
type Sinks struct {
	Archive    Archive
	Exporter   Exporter
	Messenger  Messenger
	Roster     Roster
	Statements bool
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reporter Reporter
	sinks    Sinks
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, sinks Sinks, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Standard five-field cron expressions.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		schedule: cfg.CronSchedule,
		reporter: reporter,
		sinks:    sinks,
		logger:   logger,
	}, nil
}

// Start registers the weekly job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("weekly report failed", zap.Error(err))
	}
}

// RunOnce generates the weekly summary and hands it to every configured
// sink. A failing sink is logged and the remaining ones still run; only a
// failure to build the summary is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Info("generating weekly report")

	summary, err := s.reporter.WeeklySummary(ctx)
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	if s.sinks.Archive != nil {
		if err := s.sinks.Archive.SaveReportSnapshot(ctx, summary); err != nil {
			s.logger.Error("failed to archive weekly report", zap.Error(err))
		}
	}

	if s.sinks.Exporter != nil {
		s.export(ctx, summary)
	}

	if s.sinks.Messenger != nil {
		if err := s.sinks.Messenger.SendSummary(ctx, summary); err != nil {
			s.logger.Error("failed to send weekly report", zap.Error(err))
		} else {
			s.logger.Info("weekly report sent successfully")
		}

		if s.sinks.Statements && s.sinks.Roster != nil {
			s.sendStatements(ctx, summary)
		}
	}
	return nil
}

func (s *Scheduler) export(ctx context.Context, summary models.ReportSummary) {
	period := summary.StartDate + " to " + summary.EndDate
	periods, err := s.sinks.Exporter.ExportedPeriods(ctx)
	if err != nil {
		s.logger.Warn("could not read exported periods", zap.Error(err))
	}
	if slices.Contains(periods, period) {
		s.logger.Info("weekly report already exported", zap.String("period", period))
		return
	}
	if err := s.sinks.Exporter.ExportSummary(ctx, summary); err != nil {
		s.logger.Error("failed to export weekly report", zap.Error(err))
	}
}

func (s *Scheduler) sendStatements(ctx context.Context, summary models.ReportSummary) {
	farmers, err := s.sinks.Roster.Farmers(ctx)
	if err != nil {
		s.logger.Error("failed to load farmers for statements", zap.Error(err))
		return
	}
	sent, err := s.sinks.Messenger.SendStatements(ctx, summary, farmers)
	if err != nil {
		s.logger.Error("some statements were not sent", zap.Int("sent", sent), zap.Error(err))
		return
	}
	s.logger.Info("statements sent", zap.Int("sent", sent))
}
