package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/studyforge/studyforge/config"
	"github.com/studyforge/studyforge/internal/optimizer"
	"github.com/studyforge/studyforge/internal/runtime"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/internal/store"
	"github.com/studyforge/studyforge/provider"
)

func Run(addr string, cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if cfg == nil {
		cfg = appconfig.LoadConfig("")
	}
	dsn := cfg.Storage.Postgres.DSN()
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		log.Printf("migrate: %v", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Type), provider.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}
	var optOpts []optimizer.ClientOption
	if cfg.Optimizer.Timeout > 0 {
		optOpts = append(optOpts, optimizer.WithTimeout(cfg.Optimizer.Timeout))
	}
	opt := optimizer.New(llm, optOpts...)

	window := schedule.Window{Start: cfg.Schedule.WindowStart, End: cfg.Schedule.WindowEnd}
	sessions := NewSessions(st.ForUser, schedule.WithWindow(window))

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}
	auth, err := initAuth(ctx, st, secret)
	if err != nil {
		return err
	}

	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	bh := &BlocksHandler{Sessions: sessions}
	bh.Register(api.Group("/schedule/blocks"), auth.Secret)

	oh := &OptimizeHandler{Sessions: sessions, Opt: opt, Store: st}
	oh.Register(api.Group("/schedule"), auth.Secret)

	rh := &ReportHandler{Sessions: sessions, Store: st}
	rh.Register(api.Group("/schedule"), auth.Secret)

	th := &TopicsHandler{Store: st}
	th.Register(api.Group("/topics"), auth.Secret)

	// rollover job (with redis for locks)
	if cfg.Storage.Redis.Host == "" || cfg.Storage.Redis.Port == "" {
		return fmt.Errorf("redis not configured (storage.redis.host/port)")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
	}
	roll := &Rollover{Store: st, Rdb: rdb, Cron: cfg.Schedule.RolloverCron, Stop: make(chan struct{})}
	roll.Start()

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":10001"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
