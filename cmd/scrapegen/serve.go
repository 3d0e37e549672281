package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/panel"
	"github.com/rendis/scrapegen/internal/validation"
)

const shutdownTimeout = 5 * time.Second

func runServe(args []string) {
	base := loadConfig()
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listenAddr := fs.String("listen-addr", base.ListenAddr, "panel listen address")
	logLevel := fs.String("log-level", base.LogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	var overrides serveOverrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen-addr":
			overrides.listenAddr = listenAddr
		case "log-level":
			overrides.logLevel = logLevel
		}
	})
	base = overrides.apply(base)

	logger, levelVar := newLogger(base.LogLevel)
	validator, err := validation.NewWorkflowValidator()
	if err != nil {
		fatalf("%v", err)
	}
	rl := &reloader{cfg: base, overrides: overrides, validator: validator, logger: logger, level: levelVar}
	h, err := rl.buildPanel(base)
	if err != nil {
		fatalf("%v", err)
	}
	rl.swapper = newHandlerSwapper(h)

	if err := writePidfile(pidPath()); err != nil {
		logger.Warn("pidfile not written, install cannot signal reloads", "error", err)
	} else {
		defer os.Remove(pidPath())
	}

	srv := &http.Server{
		Addr:              base.ListenAddr,
		Handler:           rl.swapper,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("panel listening", "addr", base.ListenAddr, "provider", base.Provider)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for {
		select {
		case err := <-errCh:
			fatalf("%v", err)
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				rl.reload(loadConfig())
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			err := srv.Shutdown(ctx)
			cancel()
			if err != nil {
				logger.Error("shutdown failed", "error", err)
			}
			return
		}
	}
}

// serveOverrides holds the serve flags given on the command line. They
// outrank settings.json and env on every reload.
type serveOverrides struct {
	listenAddr *string
	logLevel   *string
}

func (o serveOverrides) apply(cfg Config) Config {
	if o.listenAddr != nil {
		cfg.ListenAddr = *o.listenAddr
	}
	if o.logLevel != nil {
		cfg.LogLevel = *o.logLevel
	}
	return cfg
}

// reloader applies settings.json changes to a running panel.
type reloader struct {
	cfg       Config
	overrides serveOverrides
	validator *validation.WorkflowValidator
	logger    *slog.Logger
	level     *slog.LevelVar
	swapper   *handlerSwapper
}

func (rl *reloader) buildPanel(cfg Config) (http.Handler, error) {
	client, err := newSuggester(cfg, rl.logger)
	if err != nil {
		return nil, err
	}
	p, err := panel.NewPanelServer(panel.PanelDeps{
		Validator: rl.validator,
		Suggester: client,
		Logger:    rl.logger,
	})
	if err != nil {
		return nil, err
	}
	return p.Handler(), nil
}

// reload applies next, with the command-line overrides on top, and returns
// what changed. A provider that fails to build leaves the current panel
// serving.
func (rl *reloader) reload(next Config) configDiff {
	next = rl.overrides.apply(next)
	d := diffConfigs(rl.cfg, next)
	if d.LogLevelChanged {
		if l, err := logging.ParseLevel(next.LogLevel); err != nil {
			rl.logger.Warn("reload: keeping log level", "error", err)
		} else {
			rl.level.Set(l)
			rl.cfg.LogLevel = next.LogLevel
		}
	}
	if d.ProviderChanged {
		h, err := rl.buildPanel(next)
		if err != nil {
			rl.logger.Error("reload: keeping provider", "provider", rl.cfg.Provider, "error", err)
		} else {
			rl.swapper.Swap(h)
			rl.cfg.Provider, rl.cfg.Model, rl.cfg.Endpoint = next.Provider, next.Model, next.Endpoint
			rl.cfg.Timeout, rl.cfg.APIKey = next.Timeout, next.APIKey
		}
	}
	for _, field := range d.RestartNeeded {
		rl.logger.Warn("reload: change needs a restart", "field", field)
	}
	rl.logger.Info("configuration reloaded",
		"log_level_changed", d.LogLevelChanged,
		"provider_changed", d.ProviderChanged)
	return d
}

func writePidfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
