package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config/config.yaml"

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

type VerificationConfig struct {
	CodeTTL      time.Duration `yaml:"code_ttl"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	AMQP struct {
		URL string `yaml:"url"`
	} `yaml:"amqp"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"telegram"`
	Mobizon      MobizonConfig      `yaml:"mobizon"`
	Verification VerificationConfig `yaml:"verification"`
}

// LoadConfig reads config/config.yaml (or LOANCRM_CONFIG) after loading an optional .env.
func LoadConfig() *Config {
	_ = godotenv.Load()

	path := os.Getenv("LOANCRM_CONFIG")
	if path == "" {
		path = defaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// secrets are usually supplied through the environment rather than the yaml file
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"LOANCRM_DATABASE_URL":   &c.Database.DSN,
		"LOANCRM_JWT_SECRET":     &c.Auth.JWTSecret,
		"LOANCRM_AMQP_URL":       &c.AMQP.URL,
		"LOANCRM_SMTP_PASSWORD":  &c.Email.SMTPPassword,
		"LOANCRM_TELEGRAM_TOKEN": &c.Telegram.BotToken,
		"LOANCRM_MOBIZON_KEY":    &c.Mobizon.APIKey,
	}
	for env, dst := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Verification.CodeTTL == 0 {
		c.Verification.CodeTTL = 5 * time.Minute
	}
	if c.Verification.PollInterval == 0 {
		c.Verification.PollInterval = 3 * time.Second
	}
	if c.Verification.PollTimeout == 0 {
		c.Verification.PollTimeout = 30 * time.Second
	}
}
