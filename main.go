package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	go2tvadapters "castbot.app/castbot/internal/adapters/go2tv"
	"castbot.app/castbot/internal/buildinfo"
	"castbot.app/castbot/internal/discovery"
	"castbot.app/castbot/internal/lifecycle"
	"castbot.app/castbot/internal/listener"
	"castbot.app/castbot/internal/listener/ntfy"
	"castbot.app/castbot/internal/listener/telegram"
	"castbot.app/castbot/internal/parser"
	"castbot.app/castbot/internal/session"
	"castbot.app/castbot/internal/state"
)

const defaultStateFile = "settings.json"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.Version)
		return
	}

	runCtx, stopSignals := signal.NotifyContext(context.Background(), lifecycle.TerminationSignals()...)
	defer stopSignals()

	logLevel := parseLogLevel(os.Getenv("CASTBOT_LOG_LEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Info("castbot_start",
		slog.String("version", buildinfo.Version),
		slog.String("log_level", logLevel.String()))

	deviceName := strings.TrimSpace(os.Getenv("CASTBOT_DEVICE"))
	if deviceName == "" {
		fmt.Fprintln(os.Stderr, "CASTBOT_DEVICE must name the cast device to control")
		os.Exit(1)
	}

	statePath := os.Getenv("CASTBOT_STATE_FILE")
	if statePath == "" {
		statePath = defaultStateFile
	}
	store := state.NewStore(statePath)
	resume, err := store.Load()
	if err != nil {
		logger.Warn("state_load_degraded", slog.String("path", statePath), slog.String("err", err.Error()))
	}

	bundle := go2tvadapters.NewBundle()
	discoverySvc := discovery.NewService(bundle.Discovery, runCtx)
	registry := parser.NewDefaultRegistry(nil)

	ctrl := session.New(session.Config{
		DeviceName:  deviceName,
		Resolver:    discoverySvc,
		CastFactory: bundle.CastFactory,
		Resume:      resume,
		Store:       store,
		Parsers:     registry,
		Logger:      logger,
	})

	if err := ctrl.Connect(runCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctrl.StartStatusLoop()

	listeners := buildListeners(logger)
	if len(listeners) == 0 {
		logger.Warn("no_listeners_configured")
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	for _, l := range listeners {
		group.Go(func() error {
			logger.Info("listener_start", slog.String("listener", l.Name()))
			return l.Start(groupCtx, ctrl.HandleMessage)
		})
	}

	runErr := group.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Warn("castbot_stopping", slog.String("reason", runErr.Error()))
	} else {
		logger.Info("castbot_stopping", slog.String("reason", "shutdown_signal"))
	}

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- ctrl.Close()
	}()
	select {
	case err := <-shutdownDone:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case <-time.After(5 * time.Second):
		fmt.Fprintln(os.Stderr, "shutdown timed out")
		os.Exit(1)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

// buildListeners wires every channel that has credentials configured.
func buildListeners(logger *slog.Logger) []listener.Listener {
	var listeners []listener.Listener

	if token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); token != "" {
		tg, err := telegram.New(token, logger)
		if err != nil {
			logger.Error("telegram_init_failed", slog.String("err", err.Error()))
		} else {
			listeners = append(listeners, tg)
		}
	}

	server := strings.TrimSpace(os.Getenv("NTFY_SERVER"))
	topic := strings.TrimSpace(os.Getenv("NTFY_TOPIC"))
	if server != "" && topic != "" {
		listeners = append(listeners, ntfy.New(server, topic, nil, logger))
	}

	return listeners
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "invalid CASTBOT_LOG_LEVEL=%q; defaulting to info\n", raw)
		return slog.LevelInfo
	}
}
