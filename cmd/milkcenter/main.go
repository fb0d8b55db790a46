package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/config"
	"github.com/mamadbah2/milkcenter/internal/events"
	"github.com/mamadbah2/milkcenter/internal/repository/mongodb"
	"github.com/mamadbah2/milkcenter/internal/repository/sessionstore"
	"github.com/mamadbah2/milkcenter/internal/repository/sheets"
	"github.com/mamadbah2/milkcenter/internal/scheduler"
	"github.com/mamadbah2/milkcenter/internal/server/handlers"
	"github.com/mamadbah2/milkcenter/internal/server/router"
	"github.com/mamadbah2/milkcenter/internal/service/alerts"
	farmersvc "github.com/mamadbah2/milkcenter/internal/service/farmers"
	fatratesvc "github.com/mamadbah2/milkcenter/internal/service/fatrates"
	ledgersvc "github.com/mamadbah2/milkcenter/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/milkcenter/internal/service/reporting"
	"github.com/mamadbah2/milkcenter/internal/service/session"
	whatsappsvc "github.com/mamadbah2/milkcenter/internal/service/whatsapp"
	"github.com/mamadbah2/milkcenter/internal/service/workspace"
	"github.com/mamadbah2/milkcenter/pkg/clients/backend"
	whatsappclient "github.com/mamadbah2/milkcenter/pkg/clients/whatsapp"
	"github.com/mamadbah2/milkcenter/pkg/logger"
)

// shellReloader drops every piece of in-memory state, the way reloading the
// dashboard would.
type shellReloader struct {
	workspace *workspace.Workspace
	alerts    *alerts.Center
	logger    *zap.Logger
}

func (r shellReloader) Reload() {
	r.workspace.Reset()
	r.alerts.Reset()
	r.logger.Info("shell reloaded")
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	bus := events.NewBus(baseLogger.Named("events"))
	store := sessionstore.New(sessionstore.NewFileKV(cfg.Session.File), baseLogger.Named("repo.session"))
	api := backend.NewClient(cfg.Backend, store, bus, baseLogger.Named("client.backend"))

	alertCenter := alerts.NewCenter(baseLogger.Named("svc.alerts"))
	ws := workspace.New(api, baseLogger.Named("svc.workspace"))
	ws.Attach(bus)

	guard := session.NewGuard(api, store, alertCenter,
		shellReloader{workspace: ws, alerts: alertCenter, logger: baseLogger.Named("shell")},
		cfg.Session.ForcedLogoutDelay, baseLogger.Named("svc.session"))
	guard.Attach(bus)
	defer guard.Detach()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	if err := api.Health(startupCtx); err != nil {
		baseLogger.Warn("backend not reachable at startup", zap.String("base_url", cfg.Backend.BaseURL), zap.Error(err))
	} else if guard.IsAuthenticated() && !guard.Verify(startupCtx) {
		baseLogger.Warn("stored session rejected by backend, operator must log in again")
	}
	cancelStartup()

	var messagingSvc *whatsappsvc.MetaWhatsAppService
	ledgerOpts := ledgersvc.Options{Location: loc, HelperSameDayOnly: cfg.Session.HelperSameDayOnly}
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, baseLogger.Named("svc.whatsapp"))
		ledgerOpts.Receipts = messagingSvc
		baseLogger.Info("whatsapp messaging enabled", zap.Bool("receipts", cfg.WhatsApp.SendReceipts))
	} else {
		baseLogger.Warn("whatsapp credentials missing, receipts and statements disabled")
	}

	farmerSvc := farmersvc.NewService(api, guard, bus, baseLogger.Named("svc.farmers"))
	fatRateSvc := fatratesvc.NewService(api, ws, guard, baseLogger.Named("svc.fatrates"))
	ledgerSvc := ledgersvc.NewService(api, ws, guard, bus, ledgerOpts, baseLogger.Named("svc.ledger"))
	reportingSvc := reportingsvc.NewService(api, ws, guard, loc, baseLogger.Named("svc.reporting"))

	sinks := scheduler.Sinks{Roster: ws, Statements: cfg.WhatsApp.SendReceipts}
	var snapshots handlers.SnapshotStore

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks.Archive = mongoRepo
		snapshots = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, report archiving disabled")
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks.Exporter = sheets.NewExporter(sheetsRepo)
	} else {
		baseLogger.Warn("google sheets not configured, report export disabled")
	}

	routes := router.Handlers{
		Session:  handlers.NewSessionHandler(guard, alertCenter, baseLogger.Named("handlers.session")),
		Farmers:  handlers.NewFarmerHandler(farmerSvc, baseLogger.Named("handlers.farmers")),
		FatRates: handlers.NewFatRateHandler(fatRateSvc, baseLogger.Named("handlers.fatrates")),
		Ledger:   handlers.NewLedgerHandler(ledgerSvc, baseLogger.Named("handlers.ledger")),
		Reports:  handlers.NewReportHandler(reportingSvc, snapshots, guard, baseLogger.Named("handlers.reports")),
	}
	if messagingSvc != nil {
		sinks.Messenger = messagingSvc
		routes.Messages = handlers.NewMessageHandler(messagingSvc, guard, baseLogger.Named("handlers.messages"))
	}
	engine := router.New(routes, cfg.Server.AllowedOrigins, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, sinks, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
