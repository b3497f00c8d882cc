package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transitfinder.org/internal/appconf"
	"transitfinder.org/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.LookupEnv, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the command-line flags. Flags that were not given leave the
// file and environment configuration untouched.
type options struct {
	configFile string
	envFiles   string
	overrides  []func(*appconf.Config)
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("transitfinder", flag.ContinueOnError)

	var (
		opts     options
		port     int
		env      string
		apiKeys  string
		schedule string
		gtfsPath string
		logLevel string
	)
	fs.StringVar(&opts.configFile, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&opts.envFiles, "env-file", ".env", "Comma separated .env files to load")
	fs.IntVar(&port, "port", 4000, "API server port")
	fs.StringVar(&env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&apiKeys, "api-keys", "test", "Comma separated API keys")
	fs.StringVar(&schedule, "schedule", "transitland", "Schedule provider (transitland|gtfs)")
	fs.StringVar(&gtfsPath, "gtfs", "", "Path or URL of a static GTFS zip, used with -schedule=gtfs")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			opts.overrides = append(opts.overrides, func(c *appconf.Config) { c.Port = port })
		case "env":
			opts.overrides = append(opts.overrides, func(c *appconf.Config) { c.EnvName = env })
		case "api-keys":
			opts.overrides = append(opts.overrides, func(c *appconf.Config) { c.APIKeys = appconf.SplitList(apiKeys) })
		case "schedule":
			opts.overrides = append(opts.overrides, func(c *appconf.Config) { c.Schedule = schedule })
		case "gtfs":
			opts.overrides = append(opts.overrides, func(c *appconf.Config) { c.GTFSPath = gtfsPath })
		case "log-level":
			opts.overrides = append(opts.overrides, func(c *appconf.Config) { c.LogLevel = logLevel })
		}
	})
	return opts, nil
}

func loadConfig(args []string, lookup appconf.LookupFunc) (appconf.Config, error) {
	opts, err := parseFlags(args)
	if err != nil {
		return appconf.Config{}, err
	}
	if err := appconf.LoadDotEnv(appconf.SplitList(opts.envFiles)...); err != nil {
		return appconf.Config{}, err
	}
	return appconf.Load(opts.configFile, lookup, opts.overrides...)
}

func run(args []string, lookup appconf.LookupFunc, out io.Writer) error {
	cfg, err := loadConfig(args, lookup)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewStructuredLogger(out, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      svc.API.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env().String(), "schedule", cfg.Schedule)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
