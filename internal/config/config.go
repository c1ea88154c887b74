package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/mask-sentry/internal/constants"
)

//go:embed prices.yaml
var pricesYAML []byte

type Config struct {
	Classifier ClassifierConfig
	Detector   DetectorConfig
	Email      EmailConfig
	WhatsApp   WhatsAppConfig
	Alerts     AlertsConfig
	Prices     PricesConfig
}

type ClassifierConfig struct {
	Provider     string        // groq, openai or gemini
	GroqAPIKey   string
	OpenAIToken  string
	GeminiAPIKey string
	Model        string        // empty means the provider default
	BaseURL      string        // overrides the OpenAI compatible endpoint
	MaxImageSize int           // 0 sends the original bytes
	Timeout      time.Duration
}

// APIKey returns the credential of the selected provider.
func (c *ClassifierConfig) APIKey() string {
	switch c.Provider {
	case "openai":
		return c.OpenAIToken
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.GroqAPIKey
	}
}

// apiKeyEnv names the environment variable holding the selected provider's key.
func (c *ClassifierConfig) apiKeyEnv() string {
	switch c.Provider {
	case "openai":
		return "OPENAI_TOKEN"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

type DetectorConfig struct {
	CascadePath string
}

type EmailConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Receiver string
}

type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	Sender     string // relay number, without the whatsapp: prefix
	Recipient  string
}

type AlertsConfig struct {
	Enabled bool
	Timeout time.Duration
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a non-negative integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envBool accepts anything strconv.ParseBool does.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envDuration accepts Go duration strings ("45s") or plain seconds ("45").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var prices PricesConfig
	if err := yaml.Unmarshal(pricesYAML, &prices); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded prices.yaml: " + err.Error())
	}

	return &Config{
		Classifier: ClassifierConfig{
			Provider:     strings.ToLower(envString("CLASSIFIER_PROVIDER", constants.DefaultClassifierProvider)),
			GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
			OpenAIToken:  os.Getenv("OPENAI_TOKEN"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        os.Getenv("CLASSIFIER_MODEL"),
			BaseURL:      os.Getenv("CLASSIFIER_BASE_URL"),
			MaxImageSize: envInt("CLASSIFIER_MAX_IMAGE_SIZE", 0),
			Timeout:      envDuration("CLASSIFIER_TIMEOUT", constants.DefaultClassifierTimeout),
		},
		Detector: DetectorConfig{
			CascadePath: envString("CASCADE_PATH", constants.DefaultCascadePath),
		},
		Email: EmailConfig{
			Host:     envString("SMTP_HOST", constants.DefaultSMTPHost),
			Port:     envInt("SMTP_PORT", constants.DefaultSMTPPort),
			Sender:   os.Getenv("SENDER_EMAIL"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			Receiver: os.Getenv("RECEIVER_EMAIL"),
		},
		WhatsApp: WhatsAppConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			Sender:     os.Getenv("TWILIO_WHATSAPP_NUMBER"),
			Recipient:  os.Getenv("MY_WHATSAPP_NUMBER"),
		},
		Alerts: AlertsConfig{
			Enabled: envBool("ALERTS_ENABLED", true),
			Timeout: envDuration("ALERT_TIMEOUT", constants.DefaultAlertTimeout),
		},
		Prices: prices,
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Classifier.Provider {
	case "groq", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown CLASSIFIER_PROVIDER %q (expected groq, openai or gemini)", c.Classifier.Provider))
	}

	required := []struct {
		key   string
		value string
	}{
		{c.Classifier.apiKeyEnv(), c.Classifier.APIKey()},
		{"SENDER_EMAIL", c.Email.Sender},
		{"EMAIL_PASSWORD", c.Email.Password},
		{"RECEIVER_EMAIL", c.Email.Receiver},
		{"TWILIO_ACCOUNT_SID", c.WhatsApp.AccountSID},
		{"TWILIO_AUTH_TOKEN", c.WhatsApp.AuthToken},
		{"TWILIO_WHATSAPP_NUMBER", c.WhatsApp.Sender},
		{"MY_WHATSAPP_NUMBER", c.WhatsApp.Recipient},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("missing required setting %s", r.key))
		}
	}

	return errors.Join(errs...)
}

// GetModelPricing returns pricing for a specific model, zero if unknown
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	return ModelPricing{}
}
