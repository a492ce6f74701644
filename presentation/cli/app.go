// Package cli wires configuration, logging and the collection workflow into the
// bmc_collect command.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bmc_collect/application/workflow"
	"bmc_collect/domain/interfaces"
	"bmc_collect/infrastructure/browser"
	"bmc_collect/infrastructure/config"
	"bmc_collect/infrastructure/logging"
	"bmc_collect/infrastructure/metrics"
	"bmc_collect/infrastructure/security"
	"bmc_collect/infrastructure/storage"

	"github.com/sirupsen/logrus"
)

// Exit codes
const (
	ExitSettled = 0
	ExitFailed  = 1
	ExitUsage   = 2
)

const usage = `Usage: bmc_collect [command] [flags]

Commands:
  run           log in, trigger collection and confirm once (default)
  schedule      run on the BMC_SCHEDULE cron expression until interrupted
  serve         expose the HTTP trigger API on BMC_LISTEN_ADDR until interrupted
  last-failure  print the record of the last failed run

Configuration is read from the environment and an optional .env file.
`

// SessionOpener builds the browser session factory for a configuration
type SessionOpener func(opts browser.Options, logger *logrus.Logger) (interfaces.SessionFactory, error)

// App is the command line entry point
type App struct {
	Stdout     io.Writer
	Stderr     io.Writer
	LoadConfig func() (config.Config, error)
	Sessions   SessionOpener
}

// NewApp - creates an App bound to the process environment
func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		Stdout:     stdout,
		Stderr:     stderr,
		LoadConfig: config.FromEnv,
		Sessions: func(opts browser.Options, logger *logrus.Logger) (interfaces.SessionFactory, error) {
			return browser.NewFactory(opts, logger)
		},
	}
}

// Main runs the command in args and returns the process exit code
func Main(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewApp(os.Stdout, os.Stderr).Run(ctx, args)
}

// Run dispatches args to a command
func (a *App) Run(ctx context.Context, args []string) int {
	command := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	switch command {
	case "run":
		return a.runOnce(ctx, args)
	case "schedule":
		return a.schedule(ctx, args)
	case "serve":
		return a.serve(ctx, args)
	case "last-failure":
		return a.lastFailure(args)
	case "help":
		fmt.Fprint(a.Stdout, usage)
		return ExitSettled
	default:
		fmt.Fprintf(a.Stderr, "unknown command %q\n\n%s", command, usage)
		return ExitUsage
	}
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	fs.Usage = func() {
		fmt.Fprint(a.Stderr, usage)
		fs.PrintDefaults()
	}
	return fs
}

// env holds everything a command needs once configuration is valid
type env struct {
	cfg     config.Config
	logger  *logrus.Logger
	closer  io.Closer
	store   interfaces.ArtifactStore
	metrics *metrics.Collector
	runner  *workflow.Runner
}

func (e *env) Close() {
	if err := e.closer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
	}
}

// bootstrap loads configuration and builds the runner. Errors here are usage errors.
func (a *App) bootstrap() (*env, error) {
	cfg, err := a.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: a.Stdout,
		Hooks:   []logrus.Hook{security.NewRedactionHook(cfg.Password)},
	})
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closer: closer}

	if len(cfg.Password) < security.MinRedactedLength {
		logger.Warnf("BMC_PASS is shorter than %d characters and is not masked in logs", security.MinRedactedLength)
	}

	if err := security.NewSecurityLayer(logger).CheckLocators(cfg.Locators); err != nil {
		e.Close()
		return nil, fmt.Errorf("configuration: %w", err)
	}

	store, err := storage.NewArtifactStore(cfg.ArtifactDir)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store = store

	sessions, err := a.Sessions(cfg.Browser, logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("configuration: %w", err)
	}

	e.metrics = metrics.NewCollector()
	e.runner = workflow.NewRunner(sessions, store, workflow.Options{
		URL:      cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Locators: cfg.Locators,
		Timeouts: cfg.Timeouts,
	}, logger, e.metrics)

	logger.WithFields(cfg.Fields()).Info("bmc_collect started")
	return e, nil
}

func (a *App) usageError(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitSettled
	}
	fmt.Fprintf(a.Stderr, "Error: %v\n", err)
	return ExitUsage
}
