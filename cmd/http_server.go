package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranvarmap/qms/internal"
	"github.com/kiranvarmap/qms/internal/account"
	accountpg "github.com/kiranvarmap/qms/internal/account/postgres"
	"github.com/kiranvarmap/qms/internal/auth"
	authpg "github.com/kiranvarmap/qms/internal/auth/postgres"
	"github.com/kiranvarmap/qms/internal/document"
	documentpg "github.com/kiranvarmap/qms/internal/document/postgres"
	"github.com/kiranvarmap/qms/internal/inspection"
	inspectionpg "github.com/kiranvarmap/qms/internal/inspection/postgres"
	"github.com/kiranvarmap/qms/internal/obs"
	"github.com/kiranvarmap/qms/internal/queue"
	"github.com/kiranvarmap/qms/internal/transport/rest"
	"github.com/kiranvarmap/qms/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config  *internal.Config
	DB      *sqlx.DB
	GormDB  *gorm.DB
	Router  *chi.Mux
	Metrics *obs.Metrics
	Logger  *slog.Logger

	AuthHandler       *auth.Handler
	AccountHandler    *account.Handler
	InspectionHandler *inspection.Handler
	DocumentHandler   *document.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.AuthHandler, deps.AccountHandler,
		deps.InspectionHandler, deps.DocumentHandler, deps.Metrics, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	var workQueue queue.WorkQueue = queue.Noop{}
	if config.Redis.URL != "" {
		rq, err := queue.NewRedisQueue(config.Redis.URL, config.Redis.QueueKey)
		if err != nil {
			log.Warn("redis unavailable, falling back to noop queue", "error", err)
		} else {
			workQueue = rq
		}
	}

	codec := auth.NewTokenCodec(config.Security.SessionSecret, config.Security.SessionDuration)
	authService := auth.NewService(authpg.NewRepository(gormDB), codec, log)
	authHandler := auth.NewHandler(authService)

	accountService := account.NewService(accountpg.NewAccountRepository(gormDB), config.Security.BCryptCost, log)
	accountHandler := account.NewHandler(accountService)

	inspectionService := inspection.NewService(inspectionpg.NewInspectionRepository(gormDB), workQueue, log)
	inspectionHandler := inspection.NewHandler(inspectionService)

	documentService := document.NewService(documentpg.NewDocumentRepository(gormDB), log)
	documentHandler := document.NewHandler(documentService, authService)

	var metrics *obs.Metrics
	if config.Observability.Metrics.Enabled {
		metrics = obs.NewMetrics()
	}

	return &Dependencies{
		Config:            config,
		Logger:            log,
		DB:                db,
		GormDB:            gormDB,
		Router:            chi.NewRouter(),
		Metrics:           metrics,
		AuthHandler:       authHandler,
		AccountHandler:    accountHandler,
		InspectionHandler: inspectionHandler,
		DocumentHandler:   documentHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the existing pgx connection so the ORM shares the pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
