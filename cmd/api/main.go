package main

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

	"github.com/cmlabs-hris/leave-approval-go/internal/config"
	appHTTP "github.com/cmlabs-hris/leave-approval-go/internal/handler/http"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/cron"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-approval-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/leave-approval-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/leave-approval-go/internal/service/notification"
	"github.com/cmlabs-hris/leave-approval-go/migrations"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(migrations.FS, dsn); err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	db, err := database.NewPostgreSQLDBWithOptions(ctx, dsn, database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	gradeRepo := postgresql.NewGradeRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	transactor := postgresql.NewTransactor(db)

	hub := sse.NewHub(sse.DefaultBufferSize)
	notifService := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.Workers,
		QueueSize:     cfg.Notification.QueueSize,
	})
	// Flush queued notifications before the pool closes.
	defer notifService.Stop()

	leaveService := leave.NewLeaveService(
		transactor,
		employeeRepo,
		gradeRepo,
		leaveTypeRepo,
		leaveBalanceRepo,
		leaveRequestRepo,
		notifService,
	)

	if cfg.Jobs.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewLeaveJobs(leaveService, cfg.Jobs.ReconcileInterval).RegisterJobs(scheduler)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	leaveHandler := appHTTP.NewLeaveHandler(leaveService)
	notificationHandler := appHTTP.NewNotificationHandler(notifService, JWTService)

	router := appHTTP.NewRouter(cfg, JWTService, leaveHandler, notificationHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
