package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nano-banana-cli/internal/gemini"
	"nano-banana-cli/internal/httpclient"
)

const defaultRootDir = ".openclaw"

// ErrUsage marks command-line mistakes. The caller prints usage and exits 2.
var ErrUsage = errors.New("usage error")

type Config struct {
	Prompt string
	Model  string
	Out    string
	Root   string

	LogLevel string

	PreferIPv4       bool
	HTTPTimeout      time.Duration
	GeminiBaseURL    string
	GeminiAPIVersion string

	TelegramToken  string
	TelegramChatID int64
}

// Load parses args on top of the environment. Flags win over environment
// variables. It returns flag.ErrHelp for -h and an error wrapping ErrUsage for
// bad or missing flags.
func Load(args []string, usage io.Writer) (Config, error) {
	cfg := Config{
		Model:            getEnv("NANO_BANANA_MODEL", gemini.DefaultModel),
		Root:             getEnv("OPENCLAW_ROOT", defaultRoot()),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "warn")),
		PreferIPv4:       getEnvBool("PREFER_IPV4", false),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", int(httpclient.DefaultTimeout/time.Second))) * time.Second,
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", gemini.DefaultBaseURL),
		GeminiAPIVersion: getEnv("GEMINI_API_VERSION", gemini.DefaultAPIVersion),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}

	if usage == nil {
		usage = io.Discard
	}

	fs := flag.NewFlagSet("nanobanana", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.StringVar(&cfg.Prompt, "prompt", "", "Text prompt for image generation (required)")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Gemini model name (env NANO_BANANA_MODEL)")
	fs.StringVar(&cfg.Out, "out", "", "Output image path (default <root>/outputs/images/nano-banana-<unix>.png)")
	fs.Int64Var(&cfg.TelegramChatID, "telegram-chat", cfg.TelegramChatID, "Telegram chat id to send the image to (env TELEGRAM_CHAT_ID)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("%w: unexpected arguments: %s", ErrUsage, strings.Join(fs.Args(), " "))
	}
	promptSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "prompt" {
			promptSet = true
		}
	})
	if !promptSet {
		fs.Usage()
		return Config{}, fmt.Errorf("%w: --prompt is required", ErrUsage)
	}

	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = gemini.DefaultModel
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = httpclient.DefaultTimeout
	}

	return cfg, nil
}

// DeliveryEnabled reports whether the image should also go to Telegram.
func (c Config) DeliveryEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return defaultRootDir
	}
	return filepath.Join(home, defaultRootDir)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
