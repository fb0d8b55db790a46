package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/server/handlers"
)

// Handlers groups the endpoint adapters. Messages may be nil when WhatsApp
// is not configured.
type Handlers struct {
	Session  *handlers.SessionHandler
	Farmers  *handlers.FarmerHandler
	FatRates *handlers.FatRateHandler
	Ledger   *handlers.LedgerHandler
	Reports  *handlers.ReportHandler
	Messages *handlers.MessageHandler
}

// New wires the Gin engine with required routes and middlewares. CORS is
// enabled only when allowedOrigins is not empty.
func New(h Handlers, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	if len(allowedOrigins) > 0 {
		r.Use(corsMiddleware(allowedOrigins))
	}

	api := r.Group("/api")

	api.POST("/session/login", h.Session.Login)
	api.POST("/session/logout", h.Session.Logout)
	api.GET("/session", h.Session.Current)
	api.GET("/alerts", h.Session.Alerts)
	api.DELETE("/alerts/:id", h.Session.DismissAlert)

	api.GET("/farmers", h.Farmers.List)
	api.GET("/farmers/:id", h.Farmers.Get)
	api.GET("/farmers/:id/status", h.Farmers.Status)
	api.POST("/farmers", h.Farmers.Create)
	api.PUT("/farmers/:id", h.Farmers.Update)
	api.DELETE("/farmers/:id", h.Farmers.Delete)
	api.POST("/farmers/:id/deactivate", h.Farmers.Deactivate)
	api.POST("/farmers/:id/reactivate", h.Farmers.Reactivate)

	api.GET("/fat-rates", h.FatRates.List)
	api.PUT("/fat-rates", h.FatRates.Save)
	api.DELETE("/fat-rates/:fat", h.FatRates.Delete)

	api.GET("/collections", h.Ledger.ListCollections)
	api.POST("/collections/preview", h.Ledger.Preview)
	api.POST("/collections", h.Ledger.Submit)
	api.PUT("/collections/:id", h.Ledger.Update)
	api.DELETE("/collections/:id", h.Ledger.Delete)
	api.GET("/advances", h.Ledger.ListAdvances)
	api.POST("/advances", h.Ledger.RecordAdvance)
	api.DELETE("/advances/:id", h.Ledger.DeleteAdvance)

	api.GET("/reports/summary", h.Reports.Summary)
	api.GET("/reports/farmers/:id/statement", h.Reports.Statement)
	api.GET("/reports/latest", h.Reports.Latest)

	if h.Messages != nil {
		api.POST("/messages", h.Messages.SendMessage)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
