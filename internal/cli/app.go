package cli

import (
	"context"
	"database/sql"
	"fmt"

	"incubator_monitor/internal/cache"
	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/config"
	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/metrics"
	"incubator_monitor/internal/notify"
	"incubator_monitor/internal/repository"
	sqldb "incubator_monitor/internal/repository/db"
	"incubator_monitor/internal/service"
)

// app holds everything a command needs. close releases it in reverse order.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	repos    *repository.Repository
	services *service.Service
	hub      *changefeed.Hub
	metrics  *metrics.Metrics

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, hub: changefeed.NewHub(nil), metrics: metrics.New()}

	db, err := openDB(cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	dialect := sqldb.Dialect(cfg.DB.Driver)
	a.repos = repository.NewRepository(db, dialect)

	deps := service.Deps{
		Log:        log,
		Hub:        a.hub,
		Metrics:    a.metrics,
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		Cooldown:   cfg.Alerts.Cooldown,
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// dedup still works through the alert log
			log.Warnw("redis_unavailable", "addr", cfg.Redis.Addr, "err", err)
		} else {
			a.closers = append(a.closers, client.Close)
			deps.Gate = cache.NewAlertGate(cache.NewRedisKV(client), cfg.Alerts.Cooldown)
		}
	}

	var sinks notify.Multi
	if len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, k.Close)
		sinks = append(sinks, k)
	}
	if cfg.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout))
	}
	if len(sinks) > 0 {
		deps.Notifier = sinks
	}

	a.services = service.NewService(a.repos, deps)
	// runs before the notifier closers
	a.closers = append(a.closers, a.services.Close)
	return a, nil
}

func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	dsn := cfg.DB.DSN
	if cfg.DB.Driver == string(sqldb.SQLite) {
		dsn = cfg.DB.Path
	}
	db, err := sqldb.Open(sqldb.Dialect(cfg.DB.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
	}
	log.Infow("db_opened", "driver", cfg.DB.Driver)
	return db, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("close_failed", "err", err)
		}
	}
}
