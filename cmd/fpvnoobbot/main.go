package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kiranze/FPVNoobBot/internal/api"
	"github.com/kiranze/FPVNoobBot/internal/config"
	"github.com/kiranze/FPVNoobBot/internal/engine"
	"github.com/kiranze/FPVNoobBot/internal/ledger"
	"github.com/kiranze/FPVNoobBot/internal/model"
	"github.com/kiranze/FPVNoobBot/internal/notify"
	"github.com/kiranze/FPVNoobBot/internal/reddit"
	"github.com/kiranze/FPVNoobBot/internal/scan"
	"github.com/kiranze/FPVNoobBot/internal/store"
)

func main() {
	// Secrets usually live in a local .env during development.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Open SQLite for the audit trail (and the ledgers when selected).
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	auditStore, err := store.New(db)
	if err != nil {
		logger.Error("init store", "error", err)
		os.Exit(1)
	}

	postLedger, commentLedger, err := openLedgers(cfg, db)
	if err != nil {
		logger.Error("open ledgers", "error", err)
		os.Exit(1)
	}

	// Build the classifier pipeline.
	var modelClient engine.ModelClient
	switch {
	case cfg.UseStubClassifier():
		logger.Warn("no LLM API key set, classifier will never match a rule")
		modelClient = &engine.StubModelClient{}
	case cfg.LLMProvider == "gemini":
		logger.Info("using Gemini model client", "model", cfg.GeminiModel)
		modelClient = engine.NewGeminiClient(cfg.GeminiKey,
			engine.WithGeminiModel(cfg.GeminiModel))
	default:
		logger.Info("using OpenAI model client", "model", cfg.OpenAIModel)
		modelClient = engine.NewOpenAIClient(cfg.OpenAIKey,
			engine.WithModel(cfg.OpenAIModel),
			engine.WithHTTPTimeout(cfg.HTTPTimeout))
	}
	retrying := engine.NewRetryClient(modelClient, engine.RealSleeper{}, logger)
	pipeline := engine.NewPipeline(engine.DefaultRules(), retrying, logger)

	forum := reddit.NewClient(reddit.Credentials{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
	}, cfg.RedditUserAgent, reddit.WithHTTPTimeout(cfg.HTTPTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botUser, err := forum.Me(ctx)
	if err != nil {
		logger.Warn("could not resolve bot identity, using configured username", "error", err)
		botUser = cfg.RedditUsername
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Error("init notifier", "error", err)
		os.Exit(1)
	}

	dispatcher := scan.NewDispatcher(forum, notifier, cfg.MutationRetries, cfg.MutationRetryDelay, logger)

	posts := scan.NewPostScanner(forum, postLedger,
		engine.NewPrefilter(engine.DefaultKeywords), pipeline, dispatcher, auditStore,
		scan.PostScannerConfig{
			Subreddit:     cfg.Subreddit,
			Limit:         cfg.PostLimit,
			ItemPause:     cfg.ItemPause,
			SweepInterval: cfg.SweepInterval,
		}, logger)

	stream := forum.StreamComments(cfg.Subreddit, cfg.StreamPollInterval)
	comments := scan.NewCommentScanner(stream, forum, commentLedger, dispatcher, auditStore,
		scan.CommentScannerConfig{
			BotUser:   botUser,
			ItemPause: cfg.ItemPause,
			Allowlist: cfg.GoodBotAllowlist,
			Denylist:  cfg.BadBotDenylist,
		}, logger)

	if cfg.StatusPort != "" {
		startStatusServer(ctx, cfg.StatusPort, auditStore, logger)
	}

	logger.Info("bot started", "subreddit", cfg.Subreddit, "bot", botUser, "notifier", cfg.Notifier)
	sup := scan.NewSupervisor(cfg.RestartDelay, logger)
	sup.Start(ctx,
		scan.Loop{Name: "post-scanner", Run: posts.Run},
		scan.Loop{Name: "comment-scanner", Run: comments.Run},
	)
	logger.Info("shutdown complete")
}

func openLedgers(cfg config.Config, db *sql.DB) (ledger.Ledger, ledger.Ledger, error) {
	if cfg.LedgerBackend == "sqlite" {
		posts, err := ledger.OpenSQLiteLedger(db, model.KindPost)
		if err != nil {
			return nil, nil, fmt.Errorf("post ledger: %w", err)
		}
		comments, err := ledger.OpenSQLiteLedger(db, model.KindComment)
		if err != nil {
			return nil, nil, fmt.Errorf("comment ledger: %w", err)
		}
		return posts, comments, nil
	}

	posts, err := ledger.OpenFileLedger(cfg.PostLedgerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("post ledger: %w", err)
	}
	comments, err := ledger.OpenFileLedger(cfg.CommentLedgerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("comment ledger: %w", err)
	}
	return posts, comments, nil
}

func buildNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.Notifier {
	case "smtp":
		return &notify.SMTPNotifier{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			To:       cfg.SMTPRecipient,
		}, nil
	case "telegram":
		return notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	default:
		return &notify.LogNotifier{Logger: logger}, nil
	}
}

func startStatusServer(ctx context.Context, port string, audit api.AuditReader, logger *slog.Logger) {
	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: api.New(audit).Handler(),
	}
	go func() {
		logger.Info("status server listening", "port", port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("status server", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()
}
