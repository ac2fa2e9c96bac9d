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

	"github.com/kiranvarmap/qms/internal/audit"
	auditpg "github.com/kiranvarmap/qms/internal/audit/postgres"
	"github.com/kiranvarmap/qms/internal/inspection"
	inspectionpg "github.com/kiranvarmap/qms/internal/inspection/postgres"
	"github.com/kiranvarmap/qms/internal/obs"
	"github.com/kiranvarmap/qms/internal/queue"
	"github.com/kiranvarmap/qms/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the inspection post-processing worker",
	Long:  `Consume inspection ids from the work queue and record an audit entry for each processed item.`,
	Run: func(cmd *cobra.Command, args []string) {
		startWorker()
	},
}

var (
	pollInterval time.Duration
	metricsAddr  string
)

func init() {
	workerCmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second, "Delay between polls when the queue is empty")
	workerCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9100", "Listen address for the worker metrics endpoint")
}

func startWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	sqlDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	db, err := initGorm(sqlDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	workQueue, err := queue.NewRedisQueue(config.Redis.URL, config.Redis.QueueKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to redis: %v\n", err)
		os.Exit(1)
	}

	inspections := inspectionpg.NewInspectionRepository(db)
	auditTrail := auditpg.NewAuditRepository(db)
	metrics := obs.NewMetrics()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err)
		}
	}()

	hostname, _ := os.Hostname()
	workerID := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down worker", "signal", sig)
		cancel()
	}()

	log.Info("worker started", "worker_id", workerID, "queue_key", config.Redis.QueueKey)

	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopped")
			return
		default:
		}

		inspectionID, err := workQueue.Dequeue(ctx)
		if err != nil {
			if err == queue.ErrEmpty {
				time.Sleep(pollInterval)
				continue
			}
			if ctx.Err() != nil {
				log.Info("worker stopped")
				return
			}
			log.Error("failed to dequeue work item", "error", err)
			time.Sleep(pollInterval)
			continue
		}

		processInspection(inspections, auditTrail, workerID, inspectionID, log)

		if length, err := workQueue.Length(ctx); err == nil {
			metrics.SetQueueLength(length)
		}
	}
}

func processInspection(inspections inspection.Repository, auditTrail *auditpg.AuditRepository, workerID, inspectionID string, log *slog.Logger) {
	entry := &audit.Entry{
		EventType:    audit.EventInspectionProcessed,
		InspectionID: inspectionID,
		WorkerID:     workerID,
		ProcessedAt:  time.Now(),
	}

	insp, err := inspections.GetInspection(inspectionID)
	if err != nil {
		entry.Status = audit.StatusError
		entry.Message = err.Error()
	} else {
		entry.Status = audit.StatusOK
		entry.Message = fmt.Sprintf("inspection %s for batch %s", insp.Status, insp.BatchID)
	}

	if err := auditTrail.Record(entry); err != nil {
		log.Error("failed to record audit entry", "error", err, "inspection_id", inspectionID)
		return
	}

	log.Info("processed inspection",
		"inspection_id", inspectionID,
		"status", entry.Status,
		"worker_id", workerID)
}
