package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/fakhrymubarak/weather-text/internal/config"
	"github.com/fakhrymubarak/weather-text/internal/handler"
	"github.com/fakhrymubarak/weather-text/internal/metrics"
	"github.com/fakhrymubarak/weather-text/internal/middleware"
	"github.com/fakhrymubarak/weather-text/internal/redis"
	"github.com/fakhrymubarak/weather-text/internal/repository"
	"github.com/fakhrymubarak/weather-text/internal/scheduler"
	"github.com/fakhrymubarak/weather-text/internal/service"
	"github.com/fakhrymubarak/weather-text/internal/sms"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.GetLogger().Fatalw("Error loading config", "error", err)
	}
	logger, err := config.NewLogger(cfg.Log.Development)
	if err != nil {
		config.GetLogger().Fatalw("Error building logger", "error", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatalw("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalw("weather-text stopped with error", "error", err)
	}
}

// app is the wired process: a scheduler plus an optional HTTP server.
type app struct {
	scheduler *scheduler.Scheduler
	server    *http.Server
	limiter   *middleware.RateLimiter
	closers   []func() error
}

func buildApp(cfg *config.Config, logger *zap.SugaredLogger, httpClient *http.Client, twilioHTTP *http.Client) (*app, error) {
	a := &app{}

	var cache repository.Cache
	if rdb := redis.NewClient(cfg.Redis); rdb != nil {
		if err := redis.Ping(context.Background(), rdb); err != nil {
			logger.Warnw("Redis unavailable, weather cache disabled", "addr", cfg.Redis.Addr, "error", err)
			_ = rdb.Close()
		} else {
			cache = rdb
			a.closers = append(a.closers, rdb.Close)
		}
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.WeatherAPI.Timeout}
	}
	repo := repository.NewWeatherRepository(repository.Options{
		APIURL:     cfg.WeatherAPI.APIURL,
		APIKey:     cfg.WeatherAPI.APIKey,
		Units:      cfg.WeatherAPI.Units,
		Cache:      cache,
		CacheTTL:   cfg.Cache.Expiration,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sender := sms.NewTwilioSender(cfg.Twilio, twilioHTTP)
	svc := service.NewNotifyService(repo, sender, cfg.Notify.Location, cfg.Notify.ToNumber, metrics.NewNotify(reg), logger)

	sched, err := newScheduler(cfg.Schedule, svc.Run, logger)
	if err != nil {
		return nil, err
	}
	a.scheduler = sched

	if cfg.Server.Port != "" {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimiter.Rate, cfg.RateLimiter.Burst, cfg.RateLimiter.CleanupTimeout)
		a.server = &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           newRouter(handler.NewPreviewHandler(svc, logger), a.limiter, reg),
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
		}
	}
	return a, nil
}

func newScheduler(cfg config.ScheduleConfig, job scheduler.Job, logger *zap.SugaredLogger) (*scheduler.Scheduler, error) {
	switch cfg.Mode {
	case config.ScheduleModeInterval:
		return scheduler.New(scheduler.IntervalSchedule{Every: cfg.Interval}, job, cfg.RunOnStart, logger), nil
	case config.ScheduleModeDaily:
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		return scheduler.New(scheduler.DailySchedule{Hour: cfg.Hour, Minute: cfg.Minute, Location: loc}, job, cfg.RunOnStart, logger), nil
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", cfg.Mode)
	}
}

func newRouter(h *handler.PreviewHandler, rl *middleware.RateLimiter, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/preview", rl.Middleware(http.HandlerFunc(h.HandlePreview)))
	mux.HandleFunc("/healthz", h.HandleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	a, err := buildApp(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range a.closers {
			_ = c()
		}
	}()

	logger.Infow("weather-text starting", "location", cfg.Notify.Location, "schedule", cfg.Schedule.Mode)
	a.serve(ctx, cfg.Server.ShutdownTimeout, logger)
	return nil
}

// serve runs the scheduler and the optional HTTP server until ctx is done.
// A server failure only takes the HTTP surface down; sends keep going.
func (a *app) serve(ctx context.Context, shutdownTimeout time.Duration, logger *zap.SugaredLogger) {
	a.scheduler.Start(ctx)

	serverErr := make(chan error, 1)
	if a.server != nil {
		go a.limiter.Cleanup(ctx, time.Minute)
		go func() {
			logger.Infow("HTTP server listening", "addr", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Errorw("HTTP server failed, continuing without it", "addr", a.server.Addr, "error", err)
		<-ctx.Done()
	}
	logger.Infow("Shutdown: signal received")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("error during server shutdown", "error", err)
		}
	}
	a.scheduler.Stop()
	logger.Infow("Shutdown complete")
}
