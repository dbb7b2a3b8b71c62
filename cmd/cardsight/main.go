package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/app"
	"github.com/ayusman/cardsight/internal/config"
	"github.com/ayusman/cardsight/internal/logging"
	"github.com/ayusman/cardsight/internal/store"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file with CARDSIGHT_* settings")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardsight: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardsight: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("cardsight stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		logger.WithField("dir", webDir).Info("serving static files")
	}

	a, err := app.New(ctx, app.Options{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		StaticDir: webDir,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if t := a.Tray(); t != nil {
		t.OnToggle(func(detecting bool) {
			if err := a.ToggleDetection(detecting); err != nil {
				logger.WithError(err).Warn("toggle detection failed")
			}
		})
		t.OnOpenUI(func() {
			logger.Infof("web UI at http://localhost%s", cfg.Addr)
		})
		t.OnQuit(stop)

		errCh := make(chan error, 1)
		go func() { errCh <- a.Serve(ctx) }()
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine; it returns after Quit.
		t.Run()
		stop()
		return <-errCh
	}

	return a.Serve(ctx)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
