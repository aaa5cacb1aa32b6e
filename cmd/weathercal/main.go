package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"weathercal/internal/caldav"
	"weathercal/internal/config"
	appLog "weathercal/internal/log"
	"weathercal/internal/owm"
	"weathercal/internal/sync"
	"weathercal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("weathercal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"keep_past_days", *conf.KeepPastDays,
		"calendar", conf.CalDAV.Calendar,
		"once", flags.once,
	)

	service, err := buildService(conf)
	if err != nil {
		appLog.Error("failed to initialize sync service", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		out, err := service.RunOnce(ctx)
		for _, line := range out.Lines() {
			fmt.Println(line)
		}
		if err != nil {
			appLog.Error("sync run failed", err)
			os.Exit(1)
		}
		return
	}

	server := web.NewServer(conf, service)

	runJob := func() {
		started := time.Now()
		out, err := service.RunOnce(ctx)
		server.RecordRun(started, out, err)
		if err != nil {
			appLog.Error("scheduled sync failed", err)
			return
		}
		appLog.Info("scheduled sync finished", "duration", time.Since(started).Round(time.Millisecond).String())
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, runJob); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()

	go func() {
		if err := server.Start(ctx); err != nil {
			appLog.Error("HTTP server stopped", err)
			cancel()
		}
	}()

	// Run an initial sync right away instead of waiting for the first
	// cron tick.
	go runJob()

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	appLog.Info("weathercal exiting")
}

// buildService wires the OpenWeatherMap fetcher and the CalDAV client
// from configuration.
func buildService(conf *config.Config) (*sync.Service, error) {
	client, err := caldav.NewClient(caldav.Config{
		BaseURL:  conf.CalDAV.URL,
		Username: conf.CalDAV.Username,
		Password: conf.CalDAV.Password,
	})
	if err != nil {
		return nil, err
	}

	fetcher := owm.NewClient(conf.OpenWeather.APIKey, "").
		At(conf.OpenWeather.Lat, conf.OpenWeather.Lon)

	return sync.NewService(fetcher, client, conf.CalDAV.Calendar, *conf.KeepPastDays), nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/weathercal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one sync pass and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
