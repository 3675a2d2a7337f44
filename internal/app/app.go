package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/readmark/readmark/internal/catalog"
	"github.com/readmark/readmark/internal/config"
	"github.com/readmark/readmark/internal/httpserver"
	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/redis"
	"github.com/readmark/readmark/internal/remote"
	"github.com/readmark/readmark/internal/scheduler"
	"github.com/readmark/readmark/internal/session"
	"github.com/readmark/readmark/internal/store"
	memorystore "github.com/readmark/readmark/internal/store/memory"
	redisstore "github.com/readmark/readmark/internal/store/redis"
	sqlitestore "github.com/readmark/readmark/internal/store/sqlite"
	"github.com/readmark/readmark/internal/syncer"
	"github.com/readmark/readmark/internal/token"
	"github.com/readmark/readmark/internal/user"
	"github.com/readmark/readmark/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	syncer   *syncer.Service
	sessions *session.Registry
	reloader *scheduler.CatalogReloader
	reaper   *scheduler.SessionReaper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		loggerClient.Errorf("Failed to create data directory %s: %v", cfg.DataDir, err)
		os.Exit(1)
	}

	// Local store. A broken backend is not fatal: reading still works
	// on the in-memory fallback, it just does not survive a restart.
	st, degraded := openStore(cfg, loggerClient)

	// Remote CMS client. The credential source is attached after the
	// token manager exists, since the manager refreshes through the
	// client.
	cms := remote.NewClient(cfg.CMSBaseURL, loggerClient)
	tokens := token.NewManager(cfg.DataDir, []byte(cfg.VaultPassphrase), cms.RefreshToken, loggerClient)
	cms.SetCredentials(tokens)

	sink := backupSink(cfg, cms, loggerClient)

	sync := syncer.New(st, tokens, sink, loggerClient, syncer.WithQuietWindow(cfg.QuietWindow))
	sessions := session.NewRegistry(sync, st, loggerClient)

	// Catalog and background jobs
	cat := catalog.New(cfg.CatalogFile)
	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewCatalogReloader(cat, loggerClient, cfg.ReloadInterval, reloadTrigger)
	reaper := scheduler.NewSessionReaper(sessions, loggerClient, cfg.ReaperInterval, cfg.IdleThreshold)

	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Version:              version.Version,
		Commit:               version.Commit,
		BuildDate:            version.BuildDate,
		GoVersion:            version.GoVersion,
		TimeNow:              time.Now,
		Catalog:              cat,
		Store:                st,
		Tokens:               tokens,
		Remote:               cms,
		Sessions:             sessions,
		Syncer:               sync,
		User:                 user.NewSession(),
		StorageDegraded:      degraded,
		CatalogReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		store:    st,
		syncer:   sync,
		sessions: sessions,
		reloader: reloader,
		reaper:   reaper,
	}
}

// openStore selects the configured backend and falls back to the
// in-memory store when it cannot be opened. The second return value
// reports whether the fallback is in effect.
func openStore(cfg *config.Config, log logger.Logger) (store.Store, bool) {
	switch cfg.StoreBackend {
	case "sqlite":
		st, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			log.Warn("sqlite store unavailable, using in-memory fallback", logger.Error(err))
			return memorystore.New(), true
		}
		log.Info("sqlite store ready", logger.String("path", cfg.SQLitePath))
		return st, false
	case "redis":
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			log.Warn("redis store unavailable, using in-memory fallback", logger.Error(err))
			return memorystore.New(), true
		}
		log.Info("redis store ready", logger.String("addr", cfg.RedisAddr))
		return redisstore.NewStore(client), false
	default:
		log.Info("using in-memory store, state will not survive a restart")
		return memorystore.New(), false
	}
}

// backupSink picks where consolidated snapshots go. Backups are
// best-effort everywhere downstream, so "none" simply disables them.
func backupSink(cfg *config.Config, cms *remote.Client, log logger.Logger) syncer.BackupSink {
	switch cfg.BackupSink {
	case "s3":
		sink, err := remote.NewS3Sink(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			log.Warn("s3 backup sink unavailable, snapshots disabled", logger.Error(err))
			return nil
		}
		log.Info("s3 backup sink ready", logger.String("bucket", cfg.S3Bucket))
		return sink
	case "none":
		return nil
	default:
		return cms
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting readmark v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("readmark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start catalog reloader (loads the catalog and starts periodic refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	// Start session reaper
	if err := a.reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	a.logger.Info("session reaper started",
		logger.Duration("interval", a.cfg.ReaperInterval),
		logger.Duration("threshold", a.cfg.IdleThreshold))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Closing sessions flushes their bookmarks through the syncer, so
	// this has to happen before the store goes away.
	a.sessions.CloseAll(shutdownCtx)
	a.syncer.FlushAll(shutdownCtx)

	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close store: %v", err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	a.logger.Info("✅ readmark stopped cleanly")
	return nil
}
