// Command checkin-sim runs the check-in client core against a live service from a
// terminal. Decoded codes are read from stdin, one per line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goCheckin "github.com/MrEthical07/goCheckin"
	"github.com/MrEthical07/goCheckin/metrics/export/prometheus"
	"github.com/MrEthical07/goCheckin/session"
	"github.com/MrEthical07/goCheckin/transport/httpapi"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile  = flag.String("config", "", "optional config file (yaml, json or toml)")
		baseURL     = flag.String("base-url", "", "check-in service root")
		backend     = flag.String("store", "", "session storage backend: file, redis or memory")
		storeDir    = flag.String("store-dir", "", "directory for the file backend")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, miniredis is used")
		email       = flag.String("email", "", "sign in with this email on start")
		password    = flag.String("password", "", "password for -email")
		denyCamera  = flag.Bool("deny-camera", false, "answer camera permission requests with a denial")
		metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address")
		logEnv      = flag.String("log-env", "", "log preset: development or production")
		audit       = flag.Bool("audit", false, "log audit events")
		auditFile   = flag.String("audit-file", "", "append audit events to this file as JSON lines")
	)
	flag.Parse()

	overrides := map[string]any{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			overrides["api.base_url"] = *baseURL
		case "store":
			overrides["store.backend"] = *backend
		case "store-dir":
			overrides["store.dir"] = *storeDir
		case "redis-addr":
			overrides["store.redis_addr"] = *redisAddr
		case "deny-camera":
			overrides["camera.deny"] = *denyCamera
		case "metrics-addr":
			overrides["metrics.addr"] = *metricsAddr
		case "log-env":
			overrides["log.env"] = *logEnv
		case "audit":
			overrides["log.audit"] = *audit
		case "audit-file":
			overrides["log.audit_file"] = *auditFile
		}
	})

	cfg, err := loadConfig(*configFile, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *email, *password); err != nil {
		logger.Error("checkin-sim exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *simConfig, logger *zap.Logger, email, password string) error {
	kv, cleanup, err := openKV(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := httpapi.New(httpapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger.Named("http"),
	})
	if err != nil {
		return err
	}

	deny := cfg.Camera.Deny
	b := goCheckin.New().
		WithConfig(cfg.engineConfig()).
		WithKV(kv).
		WithAuthClient(client).
		WithVerifyClient(client).
		WithPermissionSource(goCheckin.PermissionFunc(func(context.Context) (bool, error) {
			return !deny, nil
		})).
		WithLogger(logger)
	var sinks goCheckin.MultiSink
	if cfg.Log.Audit {
		sinks = append(sinks, goCheckin.NewLoggerSink(logger.Named("audit")))
	}
	if cfg.Log.AuditFile != "" {
		f, err := os.OpenFile(cfg.Log.AuditFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, goCheckin.NewJSONWriterSink(f))
	}
	if len(sinks) > 0 {
		b = b.WithAuditSink(sinks)
	}

	engine, err := b.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if cfg.Metrics.Addr != "" {
		srv, err := metricsServer(cfg.Metrics.Addr, engine)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	con := &console{engine: engine, out: os.Stdout}

	restored := engine.Sessions().Restore(ctx)
	switch {
	case email != "":
		if err := engine.Sessions().Login(ctx, email, password); err != nil {
			fmt.Fprintf(os.Stdout, "login failed: %v\n", err)
		} else {
			con.activate(ctx)
		}
	case restored.Authenticated():
		fmt.Fprintf(os.Stdout, "restored session for %s\n", restored.Identity.Email)
		con.activate(ctx)
	}

	return con.run(ctx, os.Stdin)
}

func openKV(cfg storeSettings, logger *zap.Logger) (session.KV, func(), error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryKV(), func() {}, nil
	case "redis":
		addr := cfg.RedisAddr
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("start miniredis: %w", err)
			}
			addr = mr.Addr()
			logger.Warn("no redis address configured, using in-process miniredis", zap.String("addr", addr))
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup := func() {
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
		}
		return session.NewRedisKV(client, cfg.RedisTTL), cleanup, nil
	default:
		kv, err := session.NewFileKV(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil
	}
}

func metricsServer(addr string, engine *goCheckin.Engine) (*http.Server, error) {
	handler, err := prometheus.Handler(prometheus.NewCollector(engine))
	if err != nil {
		return nil, err
	}
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", handler)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}
