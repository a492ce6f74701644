package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"bmc_collect/application/collector"
	"bmc_collect/application/scheduler"
	"bmc_collect/infrastructure/storage"
	"bmc_collect/presentation/httpapi"

	"github.com/google/uuid"
)

// runOnce performs a single collection and maps the result to the exit code
func (a *App) runOnce(ctx context.Context, args []string) int {
	if err := a.flags("run").Parse(args); err != nil {
		return a.usageError(err)
	}

	e, err := a.bootstrap()
	if err != nil {
		return a.usageError(err)
	}
	defer e.Close()

	result, err := e.runner.Run(ctx, uuid.New().String())
	if err != nil {
		e.logger.WithField("failure_kind", result.FailureKind).Errorf("Execution failed: %v", err)
		if result.Artifact != nil {
			fmt.Fprintf(a.Stderr, "Debug artifacts: %s, %s\n", result.Artifact.SnapshotPath, result.Artifact.DocumentPath)
		}
		return result.ExitCode()
	}

	e.logger.WithField("dialog", result.Dialog).Info("Execution finished")
	return result.ExitCode()
}

// schedule runs collections on the configured cron expression until ctx ends
func (a *App) schedule(ctx context.Context, args []string) int {
	set := a.flags("schedule")
	spec := set.String("cron", "", "schedule expression, overrides BMC_SCHEDULE")
	if err := set.Parse(args); err != nil {
		return a.usageError(err)
	}

	e, err := a.bootstrap()
	if err != nil {
		return a.usageError(err)
	}
	defer e.Close()

	if *spec == "" {
		*spec = e.cfg.Schedule
	}

	svc := collector.NewService(ctx, e.runner, e.logger)
	sched, err := scheduler.New(ctx, *spec, svc, e.logger)
	if err != nil {
		return a.usageError(err)
	}

	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	svc.Wait()
	e.logger.Info("Scheduler exited")
	return ExitSettled
}

// serve exposes the trigger API, optionally alongside the scheduler
func (a *App) serve(ctx context.Context, args []string) int {
	set := a.flags("serve")
	addr := set.String("addr", "", "listen address, overrides BMC_LISTEN_ADDR")
	withSchedule := set.Bool("schedule", false, "also run on BMC_SCHEDULE")
	if err := set.Parse(args); err != nil {
		return a.usageError(err)
	}

	e, err := a.bootstrap()
	if err != nil {
		return a.usageError(err)
	}
	defer e.Close()

	if *addr == "" {
		*addr = e.cfg.ListenAddr
	}

	svc := collector.NewService(ctx, e.runner, e.logger)

	var wg sync.WaitGroup
	if *withSchedule {
		sched, err := scheduler.New(ctx, e.cfg.Schedule, svc, e.logger)
		if err != nil {
			return a.usageError(err)
		}
		sched.Start()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			<-sched.Stop().Done()
		}()
	}

	server := httpapi.NewServer(*addr, svc, e.metrics.Handler(), e.logger)
	err = server.ListenAndServe(ctx)
	wg.Wait()
	svc.Wait()
	if err != nil {
		e.logger.Errorf("Trigger API stopped: %v", err)
		return ExitFailed
	}
	return ExitSettled
}

// lastFailure prints the record of the last failed run as JSON
func (a *App) lastFailure(args []string) int {
	if err := a.flags("last-failure").Parse(args); err != nil {
		return a.usageError(err)
	}

	cfg, err := a.LoadConfig()
	if err != nil {
		return a.usageError(fmt.Errorf("configuration: %w", err))
	}
	store, err := storage.NewArtifactStore(cfg.ArtifactDir)
	if err != nil {
		return a.usageError(err)
	}

	record, err := store.LoadRecord()
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(a.Stdout, "No failure recorded")
		return ExitSettled
	}
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitFailed
	}

	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitFailed
	}
	return ExitSettled
}
