package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/quizpilot/models"
)

// Backend selector values.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Log verbosity values.
const (
	VerbosityAll    = "all"    // every message, including DOM-level debug
	VerbosityAI     = "ai"     // AI-interaction messages only
	VerbositySilent = "silent" // errors only
)

// Timeout policy values for the question wait (see LoopConfig.TimeoutPolicy).
const (
	PolicyFinish = "finish"
	PolicyReload = "reload"
)

// Config holds all application configuration. It is constructed once at
// startup and treated as immutable for the run.
type Config struct {
	Quiz    QuizConfig
	AI      AIConfig
	Browser BrowserConfig
	Loop    LoopConfig
	Log     LogConfig
	Status  StatusConfig
	Webhook WebhookConfig
}

// QuizConfig identifies the target portal and the login identity.
type QuizConfig struct {
	// TargetURL is the quiz page to navigate to.
	TargetURL string

	// Email and Pin are the login credentials.
	Email string
	Pin   string

	// Layout names the selector layout for the portal ("classic" or "panel").
	Layout string
}

// AIConfig controls the inference backends.
type AIConfig struct {
	// Backend chooses the inference client: "ollama" or "openai".
	Backend string

	// Ollama (local generate endpoint).
	OllamaURL   string // default: "http://localhost:11434"
	OllamaModel string // default: "llama3"

	// OpenAI-compatible chat completion endpoint.
	OpenAIBaseURL string // default: "https://api.openai.com/v1"
	OpenAIModel   string // default: "gpt-4o-mini"
	OpenAIKey     string // required when Backend == "openai"

	// MaxTokens bounds the completion budget (the reply is one integer).
	MaxTokens int // default: 5

	// Temperature biases toward deterministic single-token answers.
	Temperature float64 // default: 0.1

	// RequestTimeout is the deadline for one inference call.
	RequestTimeout time.Duration // default: 60s

	// RequestsPerSecond and Burst throttle calls against the backend.
	RequestsPerSecond float64 // default: 1
	Burst             int     // default: 1
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless. The default is
	// false: the run is meant to be observable, and a human can intervene.
	Headless bool

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for all requests.
	Proxy string

	// Stealth injects anti-automation-detection JS before navigation.
	Stealth bool // default: true

	// NavigationTimeout is the max time for the initial page load.
	NavigationTimeout time.Duration // default: 30s

	// ScreenshotDir is where diagnostic screenshots are written.
	ScreenshotDir string // default: "."
}

// LoopConfig controls the question/answer loop and login sequencing.
type LoopConfig struct {
	// ElementTimeout is the base bounded wait for a single element.
	// The locate retry helper scales it linearly per attempt.
	ElementTimeout time.Duration // default: 5s

	// LocateAttempts is how many times the retry helper tries.
	LocateAttempts int // default: 3

	// RetryPause is the fixed pause between locate attempts.
	RetryPause time.Duration // default: 500ms

	// StartTimeout bounds the wait for the quiz-start control after login.
	StartTimeout time.Duration // default: 15m

	// SettleDelay is the pause after a submit (or reload) so asynchronous
	// page updates can complete before the next DOM query.
	SettleDelay time.Duration // default: 2s

	// LoginSettle is the pause after the final login click, allowing
	// server-side session establishment.
	LoginSettle time.Duration // default: 3s

	// TimeoutPolicy decides what a question-wait timeout means:
	// "finish" ends the run cleanly, "reload" reloads the page and retries.
	TimeoutPolicy string // default: "finish"

	// MaxReloads bounds consecutive fruitless reloads under the "reload"
	// policy before the run is treated as finished.
	MaxReloads int // default: 3

	// CacheEntries is the answer memo capacity (0 disables the memo).
	CacheEntries int // default: 256
}

// LogConfig controls structured logging.
type LogConfig struct {
	Verbosity string // "all", "ai", "silent"; default: "all"
	Format    string // "json" or "text"; default: "text"
}

// StatusConfig controls the optional local status server.
type StatusConfig struct {
	Enabled bool   // default: false
	Host    string // default: "127.0.0.1"
	Port    int    // default: 8911
	Mode    string // gin mode; default: "release"
}

// WebhookConfig controls run-event notifications.
type WebhookConfig struct {
	URL    string // empty disables webhooks
	Secret string // optional HMAC signing secret
}

// Load reads configuration from a .env file (if present) and the
// environment. Call Validate before using the result.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Quiz: QuizConfig{
			TargetURL: os.Getenv("QUIZPILOT_TARGET_URL"),
			Email:     os.Getenv("QUIZPILOT_EMAIL"),
			Pin:       os.Getenv("QUIZPILOT_PIN"),
			Layout:    envOr("QUIZPILOT_LAYOUT", "classic"),
		},
		AI: AIConfig{
			Backend:           envOr("QUIZPILOT_AI_BACKEND", BackendOllama),
			OllamaURL:         envOr("QUIZPILOT_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:       envOr("QUIZPILOT_OLLAMA_MODEL", "llama3"),
			OpenAIBaseURL:     envOr("QUIZPILOT_OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:       envOr("QUIZPILOT_OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIKey:         os.Getenv("QUIZPILOT_OPENAI_API_KEY"),
			MaxTokens:         envIntOr("QUIZPILOT_AI_MAX_TOKENS", 5),
			Temperature:       envFloatOr("QUIZPILOT_AI_TEMPERATURE", 0.1),
			RequestTimeout:    envDurationOr("QUIZPILOT_AI_TIMEOUT", 60*time.Second),
			RequestsPerSecond: envFloatOr("QUIZPILOT_AI_RATE_RPS", 1.0),
			Burst:             envIntOr("QUIZPILOT_AI_RATE_BURST", 1),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("QUIZPILOT_HEADLESS", false),
			NoSandbox:         envBoolOr("QUIZPILOT_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("QUIZPILOT_BROWSER_BIN"),
			Proxy:             os.Getenv("QUIZPILOT_PROXY"),
			Stealth:           envBoolOr("QUIZPILOT_STEALTH", true),
			NavigationTimeout: envDurationOr("QUIZPILOT_NAV_TIMEOUT", 30*time.Second),
			ScreenshotDir:     envOr("QUIZPILOT_SCREENSHOT_DIR", "."),
		},
		Loop: LoopConfig{
			ElementTimeout: envDurationOr("QUIZPILOT_ELEMENT_TIMEOUT", 5*time.Second),
			LocateAttempts: envIntOr("QUIZPILOT_LOCATE_ATTEMPTS", 3),
			RetryPause:     envDurationOr("QUIZPILOT_RETRY_PAUSE", 500*time.Millisecond),
			StartTimeout:   envDurationOr("QUIZPILOT_START_TIMEOUT", 15*time.Minute),
			SettleDelay:    envDurationOr("QUIZPILOT_SETTLE_DELAY", 2*time.Second),
			LoginSettle:    envDurationOr("QUIZPILOT_LOGIN_SETTLE", 3*time.Second),
			TimeoutPolicy:  envOr("QUIZPILOT_TIMEOUT_POLICY", PolicyFinish),
			MaxReloads:     envIntOr("QUIZPILOT_MAX_RELOADS", 3),
			CacheEntries:   envIntOr("QUIZPILOT_CACHE_ENTRIES", 256),
		},
		Log: LogConfig{
			Verbosity: envOr("QUIZPILOT_LOG_VERBOSITY", VerbosityAll),
			Format:    envOr("QUIZPILOT_LOG_FORMAT", "text"),
		},
		Status: StatusConfig{
			Enabled: envBoolOr("QUIZPILOT_STATUS_ENABLED", false),
			Host:    envOr("QUIZPILOT_STATUS_HOST", "127.0.0.1"),
			Port:    envIntOr("QUIZPILOT_STATUS_PORT", 8911),
			Mode:    envOr("QUIZPILOT_STATUS_MODE", "release"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("QUIZPILOT_WEBHOOK_URL"),
			Secret: os.Getenv("QUIZPILOT_WEBHOOK_SECRET"),
		},
	}
}

// Validate checks required values and enum selections. It returns a
// CONFIG_INVALID error describing the first problem found; the process
// must not touch the browser when validation fails.
func (c *Config) Validate() error {
	if c.Quiz.TargetURL == "" {
		return configErr("QUIZPILOT_TARGET_URL is required")
	}
	if !strings.HasPrefix(c.Quiz.TargetURL, "http://") && !strings.HasPrefix(c.Quiz.TargetURL, "https://") {
		return configErr(fmt.Sprintf("QUIZPILOT_TARGET_URL %q is not an http(s) URL", c.Quiz.TargetURL))
	}
	if c.Quiz.Email == "" {
		return configErr("QUIZPILOT_EMAIL is required")
	}
	if c.Quiz.Pin == "" {
		return configErr("QUIZPILOT_PIN is required")
	}

	switch c.AI.Backend {
	case BackendOllama:
	case BackendOpenAI:
		if c.AI.OpenAIKey == "" {
			return configErr("QUIZPILOT_OPENAI_API_KEY is required when the openai backend is selected")
		}
	default:
		return configErr(fmt.Sprintf("QUIZPILOT_AI_BACKEND %q must be %q or %q", c.AI.Backend, BackendOllama, BackendOpenAI))
	}

	switch c.Log.Verbosity {
	case VerbosityAll, VerbosityAI, VerbositySilent:
	default:
		return configErr(fmt.Sprintf("QUIZPILOT_LOG_VERBOSITY %q must be one of all, ai, silent", c.Log.Verbosity))
	}

	// gin.SetMode panics on unknown strings; reject them here instead.
	switch c.Status.Mode {
	case "debug", "release", "test":
	default:
		return configErr(fmt.Sprintf("QUIZPILOT_STATUS_MODE %q must be one of debug, release, test", c.Status.Mode))
	}

	switch c.Loop.TimeoutPolicy {
	case PolicyFinish, PolicyReload:
	default:
		return configErr(fmt.Sprintf("QUIZPILOT_TIMEOUT_POLICY %q must be %q or %q", c.Loop.TimeoutPolicy, PolicyFinish, PolicyReload))
	}
	if c.Loop.LocateAttempts < 1 {
		return configErr("QUIZPILOT_LOCATE_ATTEMPTS must be at least 1")
	}
	if c.Loop.MaxReloads < 1 {
		return configErr("QUIZPILOT_MAX_RELOADS must be at least 1")
	}

	return nil
}

func configErr(msg string) error {
	return models.NewQuizError(models.ErrCodeConfig, msg, nil)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
