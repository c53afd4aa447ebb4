package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/MikeSquared-Agency/taskmatch/internal/broker"
	"github.com/MikeSquared-Agency/taskmatch/internal/config"
	"github.com/MikeSquared-Agency/taskmatch/internal/hermes"
	"github.com/MikeSquared-Agency/taskmatch/internal/lock"
	"github.com/MikeSquared-Agency/taskmatch/internal/store"
)

var (
	app        = kingpin.New("taskmatch", "Auto-assigns project tasks to the best-fit member")
	configPath = app.Flag("config", "Path to config file").Short('c').Envar("TASKMATCH_CONFIG").String()

	serveCmd = app.Command("serve", "Run the HTTP API, metrics server and NATS subscriptions")

	assignCmd    = app.Command("assign", "Auto-assign a single task")
	assignTaskID = assignCmd.Arg("task-id", "Task ID").Required().String()

	rankCmd    = app.Command("rank", "Show the candidate ranking for a task without assigning it")
	rankTaskID = rankCmd.Arg("task-id", "Task ID").Required().String()
	rankJSON   = rankCmd.Flag("json", "Print the ranking as JSON").Bool()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	switch command {
	case serveCmd.FullCommand():
		err = runServe(cfg, logger)
	case assignCmd.FullCommand():
		err = runAssign(cfg, logger, *assignTaskID)
	case rankCmd.FullCommand():
		err = runRank(cfg, logger, *rankTaskID, *rankJSON)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// deps holds the connections shared by every command.
type deps struct {
	db     *store.PostgresStore
	hermes hermes.Client
	locker lock.Locker
	broker *broker.Broker

	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// connect opens the database and, when configured, Redis and NATS. Redis and
// NATS are optional: without them the lock is in-process and no events are
// published.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger, withHermes bool) (*deps, error) {
	d := &deps{}

	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	d.db = db
	d.closers = append(d.closers, func() { _ = db.Close() })
	logger.Info("connected to database")

	if cfg.Redis.Addr != "" {
		rl, err := lock.NewRedisLocker(ctx, lock.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.LockTTL(),
		}, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-process member lock", "error", err)
		} else {
			d.locker = rl
			d.closers = append(d.closers, func() { _ = rl.Close() })
			logger.Info("using redis member lock", "addr", cfg.Redis.Addr)
		}
	}
	if d.locker == nil {
		d.locker = lock.NewKeyedMutex()
	}

	if withHermes && cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			d.hermes = hc
			d.closers = append(d.closers, hc.Close)
			logger.Info("connected to hermes")
		}
	}

	d.broker = broker.New(d.db, d.hermes, d.locker, cfg, logger)
	return d, nil
}
