package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "github.com/smanilla/mindtrack/common/config"
)

// Config mindtrack-api settings, loaded from the environment
type Config struct {
	Env  string
	HTTP struct {
		Addr         string
		MaxBodyBytes int64
		// PublicBaseURL is the externally reachable origin used for telephony callbacks.
		PublicBaseURL string
	}

	DBEnabled bool
	Database  commoncfg.DatabaseConfig

	RedisEnabled bool
	Redis        commoncfg.RedisConfig

	MQTT MQTTConfig

	Log struct {
		Level  string
		Format string
	}

	Auth struct {
		JWTSecret string
	}

	AI     AIConfig
	Mail   MailConfig
	Voice  VoiceConfig
	Events EventsConfig

	// NotifyTimeout bounds the whole red-alert fan-out of one submission.
	NotifyTimeout time.Duration
}

// AIConfig generative summary backend
type AIConfig struct {
	APIKey        string
	Model         string
	FallbackModel string
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
}

// Enabled reports whether a key is present.
func (c AIConfig) Enabled() bool { return c.APIKey != "" }

// MailConfig SMTP transport for red-alert emails
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Configured reports whether host and credentials are all present.
func (c MailConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// VoiceConfig Twilio voice calls
type VoiceConfig struct {
	Enabled            bool
	AccountSID         string
	AuthToken          string
	FromNumber         string
	APIBaseURL         string
	LookupBaseURL      string
	Voice              string
	Language           string
	AudioURL           string
	TwimlBinURL        string
	EmergencyNumber    string
	DefaultCountryCode string
	RingTimeout        int
	RequestTimeout     time.Duration
	LookupEnabled      bool
	PreflightEnabled   bool
	PreflightTimeout   time.Duration
	CallConcurrency    int
	StatusTTL          time.Duration
}

// Configured reports whether Twilio credentials are present.
func (c VoiceConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// MQTTConfig red-alert event publishing over MQTT
type MQTTConfig struct {
	Enabled bool
	commoncfg.MQTTConfig
	Topic string
}

// EventsConfig red-alert event stream
type EventsConfig struct {
	Stream       string
	StreamMaxLen int64
}

// Load reads the environment. It never fails on missing optional values;
// call Validate for the production fail-fast checks.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Env = getEnv("APP_ENV", "development")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":5000")
	cfg.HTTP.MaxBodyBytes = int64(parseInt(getEnv("HTTP_MAX_BODY_BYTES", "1048576"), 1<<20))

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "mindtrack"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Database.MaxIdle = 5
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "mindtrack-api"
	cfg.MQTT.QoS = 1
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "mindtrack/red-alerts")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	cfg.AI.APIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.AI.Model = getEnv("GEMINI_MODEL", "gemini-pro")
	cfg.AI.FallbackModel = getEnv("GEMINI_FALLBACK_MODEL", "gemini-1.5-pro")
	cfg.AI.BaseURL = getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.AI.Timeout = parseDuration(getEnv("AI_TIMEOUT", "20s"), 20*time.Second)
	cfg.AI.RetryCount = parseInt(getEnv("AI_RETRY_COUNT", "1"), 1)

	cfg.Mail.Enabled = getEnv("ENABLE_ALERT_EMAILS", "false") == "true"
	cfg.Mail.Host = os.Getenv("SMTP_HOST")
	cfg.Mail.Port = parseInt(getEnv("SMTP_PORT", "587"), 587)
	cfg.Mail.User = os.Getenv("SMTP_USER")
	cfg.Mail.Password = os.Getenv("SMTP_PASS")
	cfg.Mail.From = firstNonEmpty(os.Getenv("MAIL_FROM"), os.Getenv("SMTP_FROM"), cfg.Mail.User)
	cfg.Mail.Timeout = parseDuration(getEnv("MAIL_TIMEOUT", "15s"), 15*time.Second)

	cfg.Voice.Enabled = getEnv("ENABLE_VOICE_CALLS", "false") == "true"
	cfg.Voice.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.Voice.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Voice.FromNumber = os.Getenv("TWILIO_PHONE_NUMBER")
	cfg.Voice.APIBaseURL = getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com")
	cfg.Voice.LookupBaseURL = getEnv("TWILIO_LOOKUP_BASE_URL", "https://lookups.twilio.com")
	cfg.Voice.Voice = getEnv("TWILIO_VOICE", "alice")
	cfg.Voice.Language = getEnv("TWILIO_LANGUAGE", "en")
	cfg.Voice.AudioURL = strings.TrimSpace(os.Getenv("RED_ALERT_VOICE_AUDIO_URL"))
	cfg.Voice.TwimlBinURL = os.Getenv("TWIML_BIN_URL")
	cfg.Voice.EmergencyNumber = getEnv("VOICE_EMERGENCY_NUMBER", "999")
	cfg.Voice.DefaultCountryCode = getEnv("DEFAULT_COUNTRY_CODE", "+1")
	cfg.Voice.RingTimeout = parseInt(getEnv("CALL_RING_TIMEOUT", "30"), 30)
	cfg.Voice.RequestTimeout = parseDuration(getEnv("TWILIO_TIMEOUT", "15s"), 15*time.Second)
	cfg.Voice.LookupEnabled = getEnv("VOICE_LOOKUP_ENABLED", "true") == "true"
	cfg.Voice.PreflightEnabled = getEnv("VOICE_PREFLIGHT_ENABLED", "true") == "true"
	cfg.Voice.PreflightTimeout = parseDuration(getEnv("PREFLIGHT_TIMEOUT", "5s"), 5*time.Second)
	cfg.Voice.CallConcurrency = parseInt(getEnv("VOICE_CALL_CONCURRENCY", "4"), 4)
	cfg.Voice.StatusTTL = parseDuration(getEnv("CALL_STATUS_TTL", "24h"), 24*time.Hour)

	cfg.NotifyTimeout = parseDuration(getEnv("ALERT_NOTIFY_TIMEOUT", "45s"), 45*time.Second)

	cfg.Events.Stream = getEnv("ALERT_STREAM", "mindtrack:red-alerts")
	cfg.Events.StreamMaxLen = int64(parseInt(getEnv("ALERT_STREAM_MAXLEN", "10000"), 10000))

	cfg.HTTP.PublicBaseURL = ResolvePublicBaseURL(
		os.Getenv("API_URL"),
		os.Getenv("VERCEL_URL"),
		cfg.IsProduction() || os.Getenv("VERCEL") != "",
		cfg.HTTP.Addr,
	)

	return cfg, nil
}

// IsProduction reports APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate applies the checks a production deployment must pass before serving.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && len(c.Auth.JWTSecret) < 10 {
		errs = append(errs, errors.New("JWT_SECRET must be set (min 10 chars) in production"))
	}
	if c.IsProduction() && c.Voice.Enabled && c.HTTP.PublicBaseURL == "" && c.Voice.TwimlBinURL == "" {
		errs = append(errs, errors.New("API_URL (or VERCEL_URL) is required when voice calls are enabled in production"))
	}
	if c.Voice.RingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CALL_RING_TIMEOUT must be positive, got %d", c.Voice.RingTimeout))
	}
	return errors.Join(errs...)
}

// ResolvePublicBaseURL picks the public origin: apiURL, then https://vercelURL,
// then a localhost address outside hosted environments. Hosted environments
// without an explicit URL get "". A missing scheme defaults to https.
func ResolvePublicBaseURL(apiURL, vercelURL string, hosted bool, listenAddr string) string {
	base := strings.TrimSpace(apiURL)
	if base == "" && strings.TrimSpace(vercelURL) != "" {
		base = "https://" + strings.TrimSpace(vercelURL)
	}
	if base == "" {
		if hosted {
			return ""
		}
		port := "5000"
		if i := strings.LastIndex(listenAddr, ":"); i >= 0 && i < len(listenAddr)-1 {
			port = listenAddr[i+1:]
		}
		return "http://localhost:" + port
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// parseDuration accepts Go durations ("15s") or bare seconds ("15").
func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
