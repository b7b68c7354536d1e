// Package entrypoint wires the API server together and runs it until SIGINT
// or SIGTERM.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookkinder/internal/audit"
	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/database"
	auditRepo "github.com/mrlokans/bookkinder/internal/database/audit"
	http_controllers "github.com/mrlokans/bookkinder/internal/http"
	"github.com/mrlokans/bookkinder/internal/logger"
	"github.com/mrlokans/bookkinder/internal/scheduler"
	"github.com/mrlokans/bookkinder/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.L.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// kill -9 cannot be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.L.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.L.Info().Msg("Server exited")
	return nil
}

func Run(cfg *config.Config, version string) error {
	logger.L.Info().Str("version", version).Msg("Starting Bookkinder")

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.L.Error().Err(err).Msg("Error closing database")
		}
	}()

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	defer auditService.Wait()

	// Redis is optional: without it every request validates against the database.
	var redisClient *redis.Client
	var authOpts []auth.Option
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = auth.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logger.L.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Token cache disabled")
		} else {
			defer redisClient.Close()
			authOpts = append(authOpts, auth.WithTokenCache(auth.NewRedisTokenCache(redisClient, 0)))
			logger.L.Info().Str("addr", cfg.Redis.Addr).Msg("Token cache enabled")
		}
	}

	authService := auth.NewService(db.DB, cfg.Auth, authOpts...)
	authController := auth.NewAuthController(authService, auditService, cfg.Auth)
	defer authController.Stop()

	m, err := startMaintenance(cfg, authService, auditService)
	if err != nil {
		return err
	}
	defer m.close()
	defer m.stop(context.Background())

	if cfg.HTTP.ReadOnly {
		logger.L.Info().Msg("Read-only mode enabled: catalog writes will be rejected")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Redis:          redisClient,
		AuthController: authController,
		AuthService:    authService,
		AuditService:   auditService,
		APIPrefix:      cfg.HTTP.APIPrefix,
		ReadOnly:       cfg.HTTP.ReadOnly,
		HSTSMaxAge:     cfg.HTTP.HSTSMaxAge,
		Version:        version,
	})

	return Serve(router, cfg, m.stop)
}

// maintenance owns the background task queue and the cron jobs feeding it.
type maintenance struct {
	tasks    *tasks.Client
	sched    *scheduler.Scheduler
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// startMaintenance configures every job before any worker starts, so a bad
// schedule leaves nothing running.
func startMaintenance(cfg *config.Config, authService *auth.Service, auditService *audit.Service) (*maintenance, error) {
	m := &maintenance{}

	var queue scheduler.Enqueuer
	if cfg.Tasks.Enabled {
		if cfg.Database.Driver != config.DriverSQLite {
			logger.L.Warn().Str("driver", cfg.Database.Driver).Msg("Task queue keeps its own SQLite file next to DATABASE_PATH")
		}
		client, err := tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		client.Register(
			tasks.NewPruneExpiredTokensQueue(authService, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)
		m.tasks = client
		queue = client
	}

	sched, err := scheduler.NewTokenCleanupScheduler(scheduler.MaintenanceConfig{
		Queue:                queue,
		TokenPruner:          authService,
		PruneRecorder:        auditService,
		TokenCleanupSchedule: cfg.TokenCleanup.Schedule,
		AuditCleaner:         auditService,
		AuditRetentionDays:   cfg.Audit.RetentionDays,
		AuditCleanupSchedule: cfg.Audit.CleanupSchedule,
	})
	if err != nil {
		m.close()
		return nil, fmt.Errorf("failed to configure maintenance jobs: %w", err)
	}
	m.sched = sched

	if m.tasks != nil {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		go m.tasks.Start(ctx)
	}
	sched.Start(context.Background())
	for _, name := range sched.Jobs() {
		logger.L.Info().Str("job", name).Msg("Scheduled maintenance job")
	}
	return m, nil
}

// stop halts the scheduler and drains the task queue. Later calls do nothing.
func (m *maintenance) stop(ctx context.Context) {
	m.stopOnce.Do(func() {
		if m.sched != nil {
			m.sched.Stop()
		}
		if m.tasks != nil {
			m.tasks.Stop(ctx)
		}
		if m.cancel != nil {
			m.cancel()
		}
	})
}

func (m *maintenance) close() {
	if m.tasks == nil {
		return
	}
	if err := m.tasks.Close(); err != nil {
		logger.L.Error().Err(err).Msg("Error closing task client")
	}
}
