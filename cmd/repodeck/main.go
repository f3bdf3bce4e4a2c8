package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/repodeck/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/repodeck/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/repodeck/internal/adapter/driving/http"
	"github.com/ericfisherdev/repodeck/internal/application"
	"github.com/ericfisherdev/repodeck/internal/config"
	"github.com/ericfisherdev/repodeck/internal/domain/model"
	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
	"github.com/ericfisherdev/repodeck/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := logging.Close(); closeErr != nil {
			logger.Error("error closing log file", "error", closeErr)
		}
	}()

	slog.Info("config loaded",
		"repo", cfg.Repo,
		"branch", cfg.Branch,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
	)

	repo, err := model.ParseRepoFullName(cfg.Repo)
	if err != nil {
		return err
	}
	repo.Branch = cfg.Branch
	repo.LocalPath = cfg.LocalPath

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Resolve the credential store: encrypted SQLite when a secret key is
	// configured, process-lifetime memory store otherwise.
	var credStore driven.CredentialStore
	if cfg.SecretKey != nil {
		db, err := sqliteadapter.NewDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		slog.Info("credential database ready", "path", cfg.DBPath)

		credStore = sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	} else {
		slog.Warn("no secret key configured, credentials will not persist across restarts")
		credStore = sqliteadapter.NewMemoryCredentialStore()
	}

	// 4. Resolve credentials: stored credentials take priority over env vars.
	ghToken := cfg.GitHubToken
	ghUsername := cfg.GitHubUsername
	if stored, err := credStore.Get(ctx, "github", "token"); err == nil && stored != "" {
		ghToken = stored
	}
	if stored, err := credStore.Get(ctx, "github", "username"); err == nil && stored != "" {
		ghUsername = stored
	}

	factory := func(token string) (driven.GitHubClient, driven.GitHubWriter) {
		client := githubadapter.NewClient(token)
		return client, client
	}

	var ghClient driven.GitHubClient
	var ghWriter driven.GitHubWriter
	if ghToken != "" {
		ghClient, ghWriter = factory(ghToken)
		slog.Info("github client created", "username", ghUsername)
	} else {
		slog.Info("no github credentials configured, polling paused until credentials are provided")
	}

	provider := application.NewClientProvider(ghClient, ghWriter, ghUsername)

	// 5. Wire the engine: cache, scheduler, dispatcher, credential service.
	cache := application.NewCache(repo)
	syncSvc := application.NewSyncService(provider, cache, cfg.PollInterval)
	dispatcher := application.NewDispatcher(provider, cache)
	credSvc := application.NewCredentialService(credStore, provider, syncSvc, factory,
		func(ctx context.Context, token string) (string, error) {
			return githubadapter.NewClient(token).ValidateToken(ctx, token)
		})

	go syncSvc.Start(ctx)

	// 6. Serve the presentation boundary.
	apiHandler := httphandler.NewHandler(cache, dispatcher, syncSvc, credSvc, logger)
	handler := httphandler.NewServeMux(apiHandler, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("repodeck started",
		"repo", repo.FullName(),
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
	)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
