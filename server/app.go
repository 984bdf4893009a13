package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"rentwatch/config"
	"rentwatch/internal/adminapi"
	"rentwatch/internal/agentapi"
	"rentwatch/internal/cache"
	"rentwatch/internal/db"
	"rentwatch/internal/health"
	"rentwatch/internal/heuristics"
	"rentwatch/internal/ingest"
	"rentwatch/internal/logs"
	"rentwatch/internal/middleware"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
	"rentwatch/internal/tracking"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d

	if err := a.db.AutoMigrate(
		&models.Device{},
		&models.StatsSample{},
		&models.DeviceEvent{},
		&models.Screenshot{},
		&models.Setting{},
		&models.SettingAudit{},
		&models.User{}); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	/* 3) Сторы и сервисы */
	devices := repo.NewDeviceStore(a.db)
	stats := repo.NewStatsStore(a.db)
	events := repo.NewEventStore(a.db)
	shots := repo.NewScreenshotStore(a.db)
	settings := repo.NewSettingsStore(a.db)

	if err := settings.SeedDefaults(context.Background()); err != nil {
		log.Fatalf("settings seed failed: %v", err)
	}

	// Redis-кэш baseline — опционален; без него ходим в таблицу stats
	var baseline ingest.BaselineCache
	if addr := a.cfg.Redis.Addr; addr != "" {
		c, err := cache.NewLastSampleCache(addr, a.cfg.Redis.Password, a.cfg.Redis.DB, time.Hour)
		if err != nil {
			logs.Logger.Warnf("redis unavailable, baseline cache disabled: %v", err)
		} else {
			baseline = c
		}
	}

	engine := heuristics.New(settings)
	ctrl := tracking.NewController(devices, events)
	ing := ingest.New(devices, stats, events, shots, engine, ctrl, settings, baseline)

	/* 4) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
		middleware.MetricsMW,
	)

	health.RegisterRoutes(a.Router, a.db) // /healthz, /readyz
	a.Router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	/* 5) Агентские ручки — без аутентификации, админские — под JWT */
	agentapi.RegisterRoutes(a.Router, agentapi.New(ing, devices))
	adminapi.Attach(a.Router, adminapi.Dependencies{
		Devices:  devices,
		Events:   events,
		Stats:    stats,
		Shots:    shots,
		Settings: settings,
		Ctrl:     ctrl,
	}, a.cfg.Auth.JWTSecret)

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}
