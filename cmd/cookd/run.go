package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cookdaemon/cookd/internal/cmdsupport"
	"github.com/cookdaemon/cookd/internal/config"
	"github.com/cookdaemon/cookd/internal/cooking"
	"github.com/cookdaemon/cookd/internal/daemon"
	"github.com/cookdaemon/cookd/internal/drive/journal"
	"github.com/cookdaemon/cookd/internal/engine"
	"github.com/cookdaemon/cookd/internal/logging"
	"github.com/cookdaemon/cookd/internal/metrics"
)

// runMain is the entry point for the run command: it acquires the daemon
// lock, loads the configuration, brings the indexing engine up through its
// init-state machine, and then serves control connections and runs the
// steady-state monitor loop until a termination signal arrives.
func runMain(_ *cobra.Command, _ []string) error {
	logger := logging.Root.Sublogger("cookd")

	lock, err := daemon.AcquireLock(logger.Sublogger("lock"))
	if err != nil {
		return fmt.Errorf("unable to acquire daemon lock: %w", err)
	}
	defer lock.Release()

	configPath, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("unable to compute configuration path: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	registry := metrics.New()

	fs := engine.New(cooking.NewLoggingSystem(logger.Sublogger("cooking")), logger.Sublogger("engine"))
	fs.SetMetrics(registry)
	defer fs.Close()

	var roots []string
	for _, repo := range cfg.Repos {
		roots = append(roots, repo.Path)
	}
	d := fs.AddDrive("local", journal.NewPollSource(roots))
	for _, repo := range cfg.Repos {
		if _, err := d.AddRepo(repo.Name, repo.Path); err != nil {
			return fmt.Errorf("unable to register repo %q: %w", repo.Name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := fs.InitialScan(ctx, cfg.Daemon.ScanWorkersPerDrive); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}
	fs.StartMonitoring(ctx, cfg.Daemon.MonitorInterval)
	defer fs.StopMonitoring()

	listener, err := daemon.NewListener()
	if err != nil {
		return fmt.Errorf("unable to create IPC listener: %w", err)
	}
	defer listener.Close()
	startedAt := time.Now()
	go daemon.Serve(ctx, listener, fs, startedAt, logger.Sublogger("ipc"))

	if cfg.Daemon.MetricsAddress != "" {
		go func() {
			if err := registry.Serve(ctx, cfg.Daemon.MetricsAddress); err != nil && ctx.Err() == nil {
				logger.Warn(fmt.Errorf("metrics server: %w", err))
			}
		}()
	}

	terminationSignals := make(chan os.Signal, 1)
	signal.Notify(terminationSignals, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-terminationSignals:
		logger.Infof("received termination signal: %v", s)
	case <-ctx.Done():
	}

	// Give in-flight monitor ticks a moment to settle before the deferred
	// shutdown sequence tears everything down.
	time.Sleep(10 * time.Millisecond)
	return nil
}

var runCommand = &cobra.Command{
	Use:          "run",
	Short:        "Run the cookd daemon in the foreground",
	Args:         cmdsupport.DisallowArguments,
	RunE:         runMain,
	SilenceUsage: true,
}
