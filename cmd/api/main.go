package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/interfaces/scheduler"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/shared/config"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry (if enabled)
	var telemetryShutdown func(context.Context) error
	if cfg.Telemetry.Enabled {
		telemetryShutdown, err = telemetry.Init(context.Background(), telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Plaid.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return err
		}
	} else {
		log.Println("Telemetry is disabled")
	}

	// Initialize dependencies
	deps, err := NewDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Initialize scheduler (if enabled)
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Println("Initializing scheduler...")

		sched, err = scheduler.New(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   syncJobProvider(deps, cfg),
		})
		if err != nil {
			return err
		}

		deps.TransactionHandler.SetSchedule(sched)
		sched.Start()
	} else {
		log.Println("Scheduler is disabled")
	}

	// Set up routes and start the server
	handler := SetupRoutes(deps)
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := StartServer(addr, handler)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, sched, telemetryShutdown, 30*time.Second)
	return nil
}

// syncJobProvider builds one full sync job per active institution.
func syncJobProvider(deps *Dependencies, cfg *config.Config) func(context.Context) ([]scheduler.Job, error) {
	return func(ctx context.Context) ([]scheduler.Job, error) {
		institutions, err := deps.InstitutionRepo.ListActive(ctx)
		if err != nil {
			return nil, err
		}

		jobs := make([]scheduler.Job, 0, len(institutions))
		for _, inst := range institutions {
			jobs = append(jobs, scheduler.NewInstitutionFullSyncJob(inst, deps.Driver, deps.InvestmentService, cfg.Plaid.SyncDays))
		}
		return jobs, nil
	}
}
