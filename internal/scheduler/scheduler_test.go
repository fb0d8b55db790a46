package scheduler

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

type stubReporter struct {
	summary models.ReportSummary
	err     error
}

func (s stubReporter) WeeklySummary(context.Context) (models.ReportSummary, error) {
	return s.summary, s.err
}

type recorder struct {
	calls    []string
	periods  []string
	failSave bool
}

func (r *recorder) SaveReportSnapshot(context.Context, models.ReportSummary) error {
	r.calls = append(r.calls, "archive")
	if r.failSave {
		return errors.New("mongo down")
	}
	return nil
}

func (r *recorder) ExportSummary(context.Context, models.ReportSummary) error {
	r.calls = append(r.calls, "export")
	return nil
}

func (r *recorder) ExportedPeriods(context.Context) ([]string, error) {
	return r.periods, nil
}

func (r *recorder) SendSummary(context.Context, models.ReportSummary) error {
	r.calls = append(r.calls, "summary")
	return nil
}

func (r *recorder) SendStatements(_ context.Context, _ models.ReportSummary, farmers []models.Farmer) (int, error) {
	r.calls = append(r.calls, "statements")
	return len(farmers), nil
}

func (r *recorder) Farmers(context.Context) ([]models.Farmer, error) {
	return []models.Farmer{{ID: "f1"}}, nil
}

var week = models.ReportSummary{StartDate: "2024-06-10", EndDate: "2024-06-16"}

func TestRunOnceFeedsEverySink(t *testing.T) {
	rec := &recorder{failSave: true}
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * 5", Timezone: "Asia/Kolkata"},
		stubReporter{summary: week},
		Sinks{Archive: rec, Exporter: rec, Messenger: rec, Roster: rec, Statements: true},
		zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"archive", "export", "summary", "statements"}
	if !slices.Equal(rec.calls, want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
}

func TestRunOnceSkipsExportedPeriodAndMissingSinks(t *testing.T) {
	rec := &recorder{periods: []string{"2024-06-10 to 2024-06-16"}}
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * 5", Timezone: "UTC"},
		stubReporter{summary: week}, Sinks{Exporter: rec, Messenger: rec}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rec.calls, []string{"summary"}) {
		t.Fatalf("unexpected calls %v", rec.calls)
	}
}

func TestRunOnceReturnsReportError(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("not authenticated")
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * 5", Timezone: "UTC"},
		stubReporter{err: boom}, Sinks{Archive: rec}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped report error, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("no sink should run, got %v", rec.calls)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "every friday", Timezone: "UTC"}, stubReporter{}, Sinks{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	if _, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * 5", Timezone: "Mars/Olympus"}, stubReporter{}, Sinks{}, nil); err == nil {
		t.Fatal("expected timezone error")
	}
}
