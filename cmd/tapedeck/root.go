package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/petems/tapedeck/internal/app"
	"github.com/petems/tapedeck/internal/audio"
	"github.com/petems/tapedeck/internal/config"
	"github.com/petems/tapedeck/internal/events"
	"github.com/petems/tapedeck/internal/hotkey"
	"github.com/petems/tapedeck/internal/logging"
	"github.com/petems/tapedeck/internal/permissions"
	"github.com/petems/tapedeck/internal/tape"
	"github.com/petems/tapedeck/internal/telemetry"
	"github.com/petems/tapedeck/internal/tray"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tapedeck",
		Short:         "Record and replay audio from the system tray",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				logging.New().Error().Err(err).Msg("Failed to load config")
				return err
			}
			log := logging.NewWithLevel(cfg.LogLevel)
			if err := runTray(cfg, log); err != nil {
				log.Error().Err(err).Msg("Tapedeck exited with error")
				return err
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to the config file (default: platform config dir)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("backend", "", "Audio backend (portaudio, miniaudio)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddCommand(newDevicesCmd())
	return root
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := flags.GetString("config"); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("backend") {
		cfg.Audio.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	return cfg, cfg.Validate()
}

// startWorker opens the configured backend and runs the audio worker on its
// own goroutine. The returned channel yields Run's result.
func startWorker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*audio.Bridge, *audio.Worker, <-chan error, error) {
	open, err := audio.OpenHost(cfg.Audio.Backend, cfg.Audio.SampleRate)
	if err != nil {
		return nil, nil, nil, err
	}

	bridge, worker := audio.NewBridge(audio.Config{
		Open:      open,
		QueueSize: cfg.Audio.QueueSize,
		Logger:    log,
	})

	errc := make(chan error, 1)
	go func() { errc <- worker.Run(ctx) }()
	return bridge, worker, errc, nil
}

func runTray(cfg *config.Config, log zerolog.Logger) error {
	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsureMicrophone(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge, worker, workerErr, err := startWorker(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize audio: %w", err)
	}
	defer func() {
		worker.Stop()
		<-worker.Done()
	}()

	go func() {
		if err := <-workerErr; err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Audio worker stopped")
		}
		stop()
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := telemetry.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	bus := events.New()
	application := app.New(app.Config{
		Bridge: bridge,
		Bus:    bus,
		Shelf:  tape.NewShelf(cfg.MaxTapes),
		Config: cfg,
		Logger: log,
	})

	hkManager, err := hotkey.New()
	if err != nil {
		return fmt.Errorf("initialize hotkeys: %w", err)
	}
	defer hkManager.Close()

	if err := permissions.EnsureAccessibility(); err != nil {
		log.Warn().Err(err).Msg("Global hotkey unavailable")
	} else if err := hkManager.Register(cfg.PlatformHotkey(), application.OnHotkey); err != nil {
		log.Warn().Err(err).Str("hotkey", cfg.PlatformHotkey()).Msg("Failed to register hotkey")
	}

	trayUI := tray.New(tray.Options{
		App:     application,
		Bus:     bus,
		Config:  cfg,
		Version: Version,
		Commit:  Commit,
		Logger:  log,
		OnQuit:  stop,
	})

	log.Info().
		Str("backend", cfg.Audio.Backend).
		Int("sample_rate", cfg.Audio.SampleRate).
		Str("mode", cfg.Mode).
		Msg("Tapedeck starting...")

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
	return nil
}
