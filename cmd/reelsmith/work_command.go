package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/jobqueue"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/worker"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run the queue worker until interrupted",
		Long: `Work claims queued productions one at a time and runs the full pipeline
for each. A workspace file lock keeps a second worker from starting on the
same directories. The process runs until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkerProcess(cmd.Context(), ctx, debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Also write a debug-level JSON log under <log_dir>/debug")
	return cmd
}

func runWorkerProcess(cmdCtx context.Context, ctx *commandContext, debug bool) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelsmith-%s.log", runID))
	eventsPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelsmith-%s.events", runID))
	logHub := logging.NewStreamHub()
	eventArchive, archiveErr := logging.NewEventArchive(eventsPath)
	if archiveErr != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize log archive: %v\n", archiveErr)
	} else if eventArchive != nil {
		logHub.AddSink(eventArchive)
		defer eventArchive.Close()
	}
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Stream:           logHub,
		SessionID:        runID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if debug {
		debugPath := filepath.Join(cfg.Paths.LogDir, "debug", fmt.Sprintf("reelsmith-%s.log", runID))
		debugLogger, debugErr := logging.New(logging.Options{
			Level:            "debug",
			Format:           "json",
			OutputPaths:      []string{debugPath},
			ErrorOutputPaths: []string{debugPath},
			SessionID:        runID,
		})
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			logger = logging.TeeLogger(logger, debugLogger.Handler())
			logger.Info("debug logging enabled", logging.String("debug_log_path", debugPath))
		}
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update reelsmith.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "reelsmith-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "reelsmith-*.events", Exclude: []string{eventsPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "reelsmith-*.log"},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "reelsmith.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobqueue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	deps, err := buildPipelineDeps(cfg, logger)
	if err != nil {
		return err
	}

	w := worker.NewWithNotifier(cfg, store, deps, notifications.NewService(cfg), logger)
	if err := w.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("worker shutting down")
	w.Stop()
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "reelsmith.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	err := os.Link(target, current)
	if err == nil {
		return nil
	}
	return fmt.Errorf("link log pointer: %w", err)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
