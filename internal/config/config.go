package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	MailTransportSMTP  = "smtp"
	MailTransportKafka = "kafka"
	MailTransportLog   = "log"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"dev"`
	Port        int    `env:"PORT" envDefault:"5000"`
	DatabaseURL string `env:"DATABASE_URL"`
	// Allowed CORS origin for the browser client; empty disables CORS headers.
	FrontendURL string `env:"FRONTEND_URL"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`

	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPDigits int           `env:"OTP_DIGITS" envDefault:"6"`

	ReclaimInterval  time.Duration `env:"RECLAIM_INTERVAL" envDefault:"5m"`
	ReclaimRetention time.Duration `env:"RECLAIM_RETENTION" envDefault:"10m"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
	BcryptCost     int    `env:"BCRYPT_COST" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Mail Mail `envPrefix:"MAIL_"`
}

type Mail struct {
	Transport string `env:"TRANSPORT" envDefault:"log"`
	From      string `env:"FROM"`
	FromName  string `env:"FROM_NAME" envDefault:"Notes App"`
	Subject   string `env:"SUBJECT" envDefault:"Verify your email"`

	SMTP  SMTP  `envPrefix:"SMTP_"`
	Kafka Kafka `envPrefix:"KAFKA_"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

type Kafka struct {
	Brokers  []string `env:"BROKERS" envSeparator:","`
	Topic    string   `env:"TOPIC" envDefault:"mail.otp"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	TLS      bool     `env:"TLS"`
}

// Load reads .env outside production, then the process environment.
func Load() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Println("warning: .env not loaded:", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Mail.Transport = strings.ToLower(strings.TrimSpace(cfg.Mail.Transport))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.OTPDigits < 4 || c.OTPDigits > 9 {
		errs = append(errs, fmt.Errorf("OTP_DIGITS must be between 4 and 9, got %d", c.OTPDigits))
	}
	if c.ReclaimInterval <= 0 {
		errs = append(errs, errors.New("RECLAIM_INTERVAL must be positive"))
	}
	if c.ReclaimRetention <= 0 {
		errs = append(errs, errors.New("RECLAIM_RETENTION must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch c.Mail.Transport {
	case MailTransportLog:
	case MailTransportSMTP:
		if c.Mail.SMTP.Host == "" || c.Mail.From == "" {
			errs = append(errs, errors.New("smtp transport needs MAIL_SMTP_HOST and MAIL_FROM"))
		}
	case MailTransportKafka:
		if len(c.Mail.Kafka.Brokers) == 0 || c.Mail.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka transport needs MAIL_KAFKA_BROKERS and MAIL_KAFKA_TOPIC"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport))
	}
	return errors.Join(errs...)
}

func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}
