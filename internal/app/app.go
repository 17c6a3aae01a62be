package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	filelinkhttp "github.com/uniedit/filelink/internal/adapter/inbound/http/filelink"
	"github.com/uniedit/filelink/internal/domain/filelink"
	"github.com/uniedit/filelink/internal/shared/config"
	"github.com/uniedit/filelink/internal/shared/middleware"
	"github.com/uniedit/filelink/internal/utils/metrics"
)

// Application is the interface served by the HTTP command.
type Application interface {
	Router() *gin.Engine
	Stop()
}

var _ Application = (*App)(nil)

// App represents the HTTP application.
type App struct {
	config *config.Config
	router *gin.Engine
	domain *filelink.Domain
	logger *zap.Logger
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, router *gin.Engine, domain *filelink.Domain, logger *zap.Logger) *App {
	return &App{
		config: cfg,
		router: router,
		domain: domain,
		logger: logger,
	}
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Domain returns the filelink domain.
func (a *App) Domain() *filelink.Domain {
	return a.domain
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop releases application resources.
func (a *App) Stop() {
	a.logger.Info("application stopped")
}

// ProvideRouter creates and configures the Gin router.
func ProvideRouter(
	cfg *config.Config,
	handler *filelinkhttp.Handler,
	m *metrics.Metrics,
	reg *prometheus.Registry,
	logger *zap.Logger,
) *gin.Engine {
	// Set Gin mode based on log level
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(middleware.NewCORSConfig(cfg.Server.CORSOrigins)))
	r.Use(middleware.BodyLimit(cfg.Server.MaxUploadMB << 20))

	r.GET("/healthz", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handler.RegisterRoutes(r.Group("/api/v1"))

	return r
}
