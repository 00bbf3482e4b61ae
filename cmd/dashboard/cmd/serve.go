package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"vdt.ai/dashboard/core/config"
	"vdt.ai/dashboard/core/db"
	"vdt.ai/dashboard/internal/api"
	"vdt.ai/dashboard/internal/http/middleware"
	httprouter "vdt.ai/dashboard/internal/http/router"
	"vdt.ai/dashboard/internal/metrics"
	"vdt.ai/dashboard/internal/queue"
	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/service"
	"vdt.ai/dashboard/internal/store"
	"vdt.ai/dashboard/internal/store/memstore"
)

var (
	serveMigrate bool
	serveMemory  bool
	serveDemo    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

const sessionCleanupInterval = time.Hour

func init() {
	// The root command serves too, so it takes the same flags.
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&serveMigrate, "migrate", false, "apply database migrations before serving")
		c.Flags().BoolVar(&serveMemory, "memory", false, "use an in-memory store instead of PostgreSQL")
		c.Flags().BoolVar(&serveDemo, "demo", false, "with --memory, preload one demo organization and its projects")
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, telemetry, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(telemetry)

	slog.InfoContext(ctx, "dashboard starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	newContext, err := rpc.NewContextFactory(stores)
	if err != nil {
		return fmt.Errorf("build context factory: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	deps := api.Deps{Metrics: collector}

	var authService service.AuthService
	if cfg.WorkOS.Enabled() {
		authService = service.NewAuthService(service.NewWorkOSClient(cfg.WorkOS), stores.Users(), stores.Sessions(), cfg.WorkOS)
		deps.Identity = service.NewSessionResolver(authService)

		cleanupCtx, stopCleanup := context.WithCancel(ctx)
		defer stopCleanup()
		go service.RunSessionCleanup(cleanupCtx, authService, sessionCleanupInterval)
	} else {
		deps.Identity = service.NewDemoResolver()
	}

	if cfg.Activity.Enabled() {
		producer, err := queue.NewRedisProducerFromURL(ctx, cfg.Activity.RedisURL, cfg.Activity.Stream, nil)
		if err != nil {
			return fmt.Errorf("connect activity stream: %w", err)
		}
		defer producer.Close()
		deps.Activity = producer
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Activity.Stream)
	}

	app, err := api.NewAppRouter(deps)
	if err != nil {
		return fmt.Errorf("build app router: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, httprouter.Deps{
		App:        app,
		NewContext: newContext,
		Auth:       authService,
		Metrics:    metrics.Handler(reg),
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port, "procedures", app.Paths())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
	return nil
}

// openStores returns the storage handle for the process and a release func.
func openStores(ctx context.Context, cfg config.Config) (store.Provider, func(), error) {
	if serveMemory {
		mem := memstore.New()
		slog.WarnContext(ctx, "using in-memory store; data is lost on exit")
		if serveDemo {
			if _, err := seedDemo(ctx, mem, 0); err != nil {
				return nil, nil, err
			}
		}
		return mem, func() {}, nil
	}

	if serveMigrate {
		if err := db.MigrateUp(cfg.DB.DSN); err != nil {
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		slog.InfoContext(ctx, "migrations applied")
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.InfoContext(ctx, "database connected")

	return store.NewStores(database.Conn()), database.Close, nil
}

func setupRouter(cfg config.Config, deps httprouter.Deps) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, deps, httprouter.RouterConfig{
		DashboardURL: cfg.DashboardURL,
		IsProduction: cfg.IsProduction(),
	})

	return router
}
