package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	ReplyModeTwiML = "twiml"
	ReplyModeAPI   = "api"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	GeminiAuthQuery  = "query"
	GeminiAuthBearer = "bearer"
)

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string // e.g. "whatsapp:+14155238886"
}

// Configured reports whether media downloads can be authenticated.
func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	APIVersion string
	AuthMode   string
}

type OllamaConfig struct {
	Host  string
	Model string
}

type DatabaseConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	Name                   string
	InstanceConnectionName string
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	Provider string
	Gemini   GeminiConfig
	Ollama   OllamaConfig
	Twilio   TwilioConfig

	ReplyMode                string
	DisableWebhookValidation bool
	WebhookBaseURL           string

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	MaxMediaBytes        int64
	OutboundTimeout      time.Duration
	ExposeUpstreamErrors bool

	StorageDriver string
	HistoryLimit  int
	Database      DatabaseConfig

	AdminToken string
}

// IsDevelopment reports whether development-only routes and relaxed validation apply.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ValidateWebhooks reports whether inbound webhooks must carry a valid Twilio signature.
func (c *Config) ValidateWebhooks() bool {
	return !c.IsDevelopment() && !c.DisableWebhookValidation
}

// LoadEnvFiles loads .env files for local development. On Cloud Run the
// environment is provided by the platform and files are skipped.
func LoadEnvFiles() {
	if os.Getenv("K_SERVICE") != "" || os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		if err = godotenv.Load("environments/.env.development"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Provider: strings.ToLower(getEnv("VISION_PROVIDER", ProviderGemini)),
		Gemini: GeminiConfig{
			APIKey:     os.Getenv("GEMINI_API_KEY"),
			Model:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL:    strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"), "/"),
			APIVersion: getEnv("GEMINI_API_VERSION", "v1"),
			AuthMode:   strings.ToLower(getEnv("GEMINI_AUTH_MODE", GeminiAuthQuery)),
		},
		Ollama: OllamaConfig{
			Host:  getEnv("OLLAMA_HOST", "http://127.0.0.1:11434"),
			Model: getEnv("OLLAMA_MODEL", "llava"),
		},
		Twilio: TwilioConfig{
			AccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
			WhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
		},

		ReplyMode:                strings.ToLower(getEnv("REPLY_MODE", ReplyModeTwiML)),
		DisableWebhookValidation: getEnvAsBool("DISABLE_WEBHOOK_VALIDATION", false),
		WebhookBaseURL:           strings.TrimRight(os.Getenv("WEBHOOK_BASE_URL"), "/"),

		SessionTTL:           getEnvAsDuration("SESSION_TTL", 0),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		MaxMediaBytes:        int64(getEnvAsInt("MAX_MEDIA_BYTES", 20<<20)),
		OutboundTimeout:      getEnvAsDuration("OUTBOUND_TIMEOUT", 0),
		ExposeUpstreamErrors: getEnvAsBool("EXPOSE_UPSTREAM_ERRORS", true),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		HistoryLimit:  getEnvAsInt("HISTORY_LIMIT", 500),
		Database: DatabaseConfig{
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnvAsInt("DB_PORT", 5432),
			User:                   getEnv("DB_USER", "postgres"),
			Password:               os.Getenv("DB_PASS"),
			Name:                   getEnv("DB_NAME", "evebot"),
			InstanceConnectionName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		},

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads the configuration or exits.
func MustLoad() *Config {
	const op = "config.MustLoad"
	cfg, err := Load()
	if err != nil {
		log.Fatalf("%s: config validation failed: %+v", op, err)
	}
	return cfg
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the %s provider", ProviderGemini)
		}
		if c.Gemini.AuthMode != GeminiAuthQuery && c.Gemini.AuthMode != GeminiAuthBearer {
			return fmt.Errorf("invalid GEMINI_AUTH_MODE %q", c.Gemini.AuthMode)
		}
	case ProviderOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("OLLAMA_MODEL is required for the %s provider", ProviderOllama)
		}
	default:
		return fmt.Errorf("unknown VISION_PROVIDER %q", c.Provider)
	}

	switch c.ReplyMode {
	case ReplyModeTwiML:
	case ReplyModeAPI:
		if !c.Twilio.Configured() || c.Twilio.WhatsAppFrom == "" {
			return fmt.Errorf("reply mode %q needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_FROM", ReplyModeAPI)
		}
	default:
		return fmt.Errorf("unknown REPLY_MODE %q", c.ReplyMode)
	}

	if c.StorageDriver != StorageMemory && c.StorageDriver != StoragePostgres {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}
	if c.SessionTTL > 0 && c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive when SESSION_TTL is set")
	}
	if c.MaxMediaBytes <= 0 {
		return fmt.Errorf("MAX_MEDIA_BYTES must be positive")
	}
	if c.ValidateWebhooks() && c.Twilio.AuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN is required to validate webhook signatures")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	const op = "config.getEnvAsDuration"
	strValue := strings.TrimSpace(os.Getenv(key))
	if strValue == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(strValue)
	if err != nil {
		log.Printf("%s: invalid value %q for %s, using default: %v", op, strValue, key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	const op = "config.getEnvAsInt"
	strValue := strings.TrimSpace(os.Getenv(key))
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("%s: invalid value %q for %s, using default: %v", op, strValue, key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	const op = "config.getEnvAsBool"
	strValue := strings.TrimSpace(os.Getenv(key))
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("%s: invalid value %q for %s, using default: %v", op, strValue, key, defaultValue)
		return defaultValue
	}
	return value
}
