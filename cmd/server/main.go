package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fouedh91760/a-level-saver-sub001/internal/api"
	"github.com/fouedh91760/a-level-saver-sub001/internal/audit"
	"github.com/fouedh91760/a-level-saver-sub001/internal/config"
	mydb "github.com/fouedh91760/a-level-saver-sub001/internal/db"
	"github.com/fouedh91760/a-level-saver-sub001/internal/logging"
	"github.com/fouedh91760/a-level-saver-sub001/internal/responder"
	"github.com/fouedh91760/a-level-saver-sub001/internal/snapshot"
	"github.com/fouedh91760/a-level-saver-sub001/internal/store"
	"github.com/fouedh91760/a-level-saver-sub001/internal/telemetry"
)

const auditQueueSize = 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		bl := bootLogger()
		bl.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout).With().Str("env", cfg.AppEnv).Logger()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	telemetry.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.CatalogDir, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.StoreType).Msg("store")
	}
	defer st.Close()

	// initial snapshot; an unusable catalog leaves the empty placeholder active
	holder := snapshot.New(nil)
	if snap, _, err := holder.Reload(ctx, st); err != nil {
		log.Error().Err(err).Msg("initial catalog load failed, serving default template only")
	} else {
		log.Info().Str("etag", snap.ETag).Int("states", len(snap.Catalog.States())).Msg("catalog loaded")
	}

	reload := func(ctx context.Context) {
		snap, changed, err := holder.Reload(ctx, st)
		if err != nil {
			log.Error().Err(err).Msg("catalog reload rejected")
			return
		}
		if changed {
			log.Info().Str("etag", snap.ETag).Msg("catalog reloaded")
		}
	}

	if fs, ok := st.(*store.FileStore); ok && cfg.CatalogWatch {
		w, err := store.NewWatcher(fs.Dir(), store.DefaultDebounce, reload, log)
		if err != nil {
			log.Fatal().Err(err).Msg("watcher")
		}
		if err := w.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("watch catalog")
		}
		defer w.Stop()
	}
	if cfg.ReloadInterval > 0 {
		go poll(ctx, cfg.ReloadInterval, reload)
	}

	svc, auditPool, err := newAuditService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("audit")
	}
	if auditPool != nil {
		defer auditPool.Close()
	}

	opts := []responder.Option{
		responder.WithLogger(log),
		responder.WithMaxPartialDepth(cfg.MaxPartialDepth),
	}
	var auditor responder.Auditor
	if svc != nil {
		auditor = svc
		opts = append(opts, responder.WithAuditor(svc))
	}

	srvAPI := api.NewServer(holder, st, cfg.AppEnv, cfg.AdminAPIKey).
		WithResponder(responder.New(holder, opts...)).
		WithAuditor(auditor).
		WithLogger(log).
		WithRateLimit(cfg.RateLimitPerIP)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadTimeout: 3 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	if svc != nil {
		_ = svc.Close()
	}
	log.Info().Msg("stopped")
}

func bootLogger() zerolog.Logger {
	return logging.New("info", "json", os.Stderr)
}

func poll(ctx context.Context, every time.Duration, reload func(context.Context)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			reload(ctx)
		}
	}
}

// newAuditService builds the audit pipeline for cfg.AuditSink. It returns a nil
// service for "none"; the pool is only set for the postgres sink.
func newAuditService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*audit.Service, *pgxpool.Pool, error) {
	var sink audit.Sink
	var pool *pgxpool.Pool
	switch cfg.AuditSink {
	case "none":
		return nil, nil, nil
	case "postgres":
		p, err := mydb.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		pg := audit.NewPostgresSink(p)
		if err := pg.Migrate(ctx); err != nil {
			p.Close()
			return nil, nil, err
		}
		sink, pool = pg, p
	default:
		sink = audit.NewLogSink(log)
	}
	return audit.NewService(sink, nil, nil, nil, auditQueueSize, log), pool, nil
}
