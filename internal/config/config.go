// Package config provides centralized configuration for the bot.
// All configurable values are loaded from environment variables with sensible
// defaults; secrets have no defaults and must be set.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration. It is built once at startup and
// passed explicitly to each component.
type Config struct {
	// Subreddit is the community to monitor, without the /r/ prefix.
	Subreddit string

	// Reddit script-app credentials.
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string

	// LLMProvider selects the classifier backend: "openai", "gemini".
	LLMProvider string

	// OpenAIKey is the API key for the OpenAI service.
	OpenAIKey string

	// OpenAIModel is the model identifier for OpenAI completions.
	OpenAIModel string

	// GeminiKey is the API key for the Google Gemini service.
	GeminiKey string

	// GeminiModel is the model identifier for Gemini completions.
	GeminiModel string

	// Notifier selects the notification transport: "smtp", "telegram", "log".
	Notifier string

	// SMTP settings for the smtp notifier.
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPRecipient string

	// Telegram settings for the telegram notifier.
	TelegramToken  string
	TelegramChatID string

	// LedgerBackend selects processed-id persistence: "file", "sqlite".
	LedgerBackend string

	// PostLedgerPath is the file holding scanned post ids, one per line.
	PostLedgerPath string

	// CommentLedgerPath is the file holding scanned comment ids, one per line.
	CommentLedgerPath string

	// DBPath is the SQLite database file for the audit store (and the
	// ledgers when LedgerBackend is "sqlite").
	DBPath string

	// PostLimit is how many newest posts each sweep fetches.
	PostLimit int

	// ItemPause is the pacing sleep after each processed item.
	ItemPause time.Duration

	// SweepInterval is the idle sleep between post sweeps.
	SweepInterval time.Duration

	// StreamPollInterval is how often the comment stream polls for new
	// comments when the previous page was empty.
	StreamPollInterval time.Duration

	// RestartDelay is how long a crashed scan loop waits before restarting.
	RestartDelay time.Duration

	// HTTPTimeout is the timeout for outgoing HTTP requests (forum, LLM).
	HTTPTimeout time.Duration

	// MutationRetries bounds retry attempts for forum mutations.
	MutationRetries int

	// MutationRetryDelay is the fixed sleep between mutation retries.
	MutationRetryDelay time.Duration

	// GoodBotAllowlist lists authors whose "good bot" replies get the
	// personalised acknowledgment.
	GoodBotAllowlist []string

	// BadBotDenylist lists authors whose "bad bot" replies are rebuked
	// instead of honoured.
	BadBotDenylist []string

	// StatusPort is the listen port for the status HTTP server. Empty
	// disables the server.
	StatusPort string
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Subreddit:          envOr("SUBREDDIT", "fpv"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUsername:     os.Getenv("REDDIT_USERNAME"),
		RedditPassword:     os.Getenv("REDDIT_PASSWORD"),
		RedditUserAgent:    envOr("REDDIT_USER_AGENT", "fpvnoobbot/1.0"),
		LLMProvider:        envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        envOr("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		Notifier:           envOr("NOTIFIER", "log"),
		SMTPHost:           envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           envInt("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		SMTPRecipient:      os.Getenv("SMTP_RECIPIENT"),
		TelegramToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     os.Getenv("TELEGRAM_CHAT_ID"),
		LedgerBackend:      envOr("LEDGER_BACKEND", "file"),
		PostLedgerPath:     envOr("POST_LEDGER_PATH", "data/scanned_posts.txt"),
		CommentLedgerPath:  envOr("COMMENT_LEDGER_PATH", "data/scanned_comments.txt"),
		DBPath:             envOr("DB_PATH", "fpvnoobbot.db"),
		PostLimit:          envInt("POST_LIMIT", 5),
		ItemPause:          envDuration("ITEM_PAUSE", 10*time.Second),
		SweepInterval:      envDuration("SWEEP_INTERVAL", time.Minute),
		StreamPollInterval: envDuration("STREAM_POLL_INTERVAL", 15*time.Second),
		RestartDelay:       envDuration("RESTART_DELAY", 5*time.Second),
		HTTPTimeout:        envDuration("HTTP_TIMEOUT", 60*time.Second),
		MutationRetries:    envInt("MUTATION_RETRIES", 15),
		MutationRetryDelay: envDuration("MUTATION_RETRY_DELAY", 10*time.Second),
		GoodBotAllowlist:   envList("GOOD_BOT_ALLOWLIST"),
		BadBotDenylist:     envList("BAD_BOT_DENYLIST"),
		StatusPort:         os.Getenv("STATUS_PORT"),
	}
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	switch {
	case c.RedditClientID == "":
		return fmt.Errorf("REDDIT_CLIENT_ID is required")
	case c.RedditClientSecret == "":
		return fmt.Errorf("REDDIT_CLIENT_SECRET is required")
	case c.RedditUsername == "":
		return fmt.Errorf("REDDIT_USERNAME is required")
	case c.RedditPassword == "":
		return fmt.Errorf("REDDIT_PASSWORD is required")
	}
	switch c.Notifier {
	case "smtp":
		if c.SMTPUser == "" || c.SMTPPassword == "" || c.SMTPRecipient == "" {
			return fmt.Errorf("smtp notifier needs SMTP_USER, SMTP_PASSWORD and SMTP_RECIPIENT")
		}
	case "telegram":
		if c.TelegramToken == "" || c.TelegramChatID == "" {
			return fmt.Errorf("telegram notifier needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
	case "log":
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}
	switch c.LedgerBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}
	return nil
}

// UseStubClassifier returns true when no API key is configured for the
// selected LLM provider. The stub always answers No, so the bot observes
// but never acts.
func (c Config) UseStubClassifier() bool {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiKey == ""
	default:
		return c.OpenAIKey == ""
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envList parses a comma-separated env var into trimmed non-empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
