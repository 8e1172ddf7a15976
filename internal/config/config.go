package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	TriageDataDir   string        `mapstructure:"TRIAGE_DATA_DIR"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	UploadPortalURL string        `mapstructure:"UPLOAD_PORTAL_URL"`

	AssistantBaseURL string `mapstructure:"ASSISTANT_BASE_URL"`
	AssistantModel   string `mapstructure:"ASSISTANT_MODEL"`
	AssistantAPIKey  string `mapstructure:"ASSISTANT_API_KEY"`

	VonageAPIKey    string `mapstructure:"VONAGE_API_KEY"`
	VonageAPISecret string `mapstructure:"VONAGE_API_SECRET"`
	MessengerPageID string `mapstructure:"MESSENGER_PAGE_ID"`
	WhatsAppFrom    string `mapstructure:"WHATSAPP_FROM"`

	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      string `mapstructure:"SMTP_PORT"`
	SMTPUser      string `mapstructure:"SMTP_USER"`
	SMTPPass      string `mapstructure:"SMTP_PASS"`
	ReviewerEmail string `mapstructure:"REVIEWER_EMAIL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("TRIAGE_DATA_DIR", "triage_data")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("UPLOAD_PORTAL_URL", "https://allai-upload.web.app")
	v.SetDefault("SMTP_PORT", "465")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
