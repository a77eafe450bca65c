package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DB struct {
	Url           string `envconfig:"URL"`
	AutoMigrate   bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"file://internal/migrations"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL       string `envconfig:"URL"`
	Stream    string `envconfig:"STREAM" default:"donation.events"`
	Group     string `envconfig:"GROUP" default:"donation"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:""`
}

type Kafka struct {
	Brokers     string `envconfig:"BROKERS"`
	GroupID     string `envconfig:"GROUP_ID" default:"donation"`
	TopicPrefix string `envconfig:"TOPIC_PREFIX" default:"donation.events"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type Gateway struct {
	Environment  string        `envconfig:"ENVIRONMENT" default:"sandbox"`
	AuthURL      string        `envconfig:"AUTH_URL" default:"https://authenticator-sandbox.azampay.co.tz"`
	CheckoutURL  string        `envconfig:"CHECKOUT_URL" default:"https://sandbox.azampay.co.tz"`
	AppName      string        `envconfig:"APP_NAME"`
	ClientID     string        `envconfig:"CLIENT_ID"`
	ClientSecret string        `envconfig:"CLIENT_SECRET"`
	ApiKey       string        `envconfig:"API_KEY"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxRetries   uint64        `envconfig:"MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"RETRY_BACKOFF" default:"500ms"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"30m"`
	Mock         bool          `envconfig:"MOCK" default:"false"`
}

//revive:enable

// IsProduction reports whether the gateway is pointed at live money.
func (g *Gateway) IsProduction() bool {
	return strings.EqualFold(g.Environment, "production")
}

type Currency struct {
	// Settlement is the only currency the gateway accepts.
	Settlement string `envconfig:"SETTLEMENT" default:"TZS"`
	// Multipliers are static conversion factors into Settlement, e.g. "USD:2300".
	Multipliers map[string]string `envconfig:"MULTIPLIERS" default:"USD:2300"`
}

// Multiplier returns the static factor converting currency into the
// settlement currency. ok is false when no policy exists for currency.
func (c *Currency) Multiplier(currency string) (decimal.Decimal, bool, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if strings.EqualFold(currency, c.Settlement) {
		return decimal.NewFromInt(1), true, nil
	}
	for code, raw := range c.Multipliers {
		if !strings.EqualFold(strings.TrimSpace(code), currency) {
			continue
		}
		m, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("invalid multiplier for %s: %w", currency, err)
		}
		if !m.IsPositive() {
			return decimal.Zero, false, fmt.Errorf("multiplier for %s must be positive", currency)
		}
		return m, true, nil
	}
	return decimal.Zero, false, nil
}

type Webhook struct {
	Password    string        `envconfig:"PASSWORD"`
	HMACSecret  string        `envconfig:"HMAC_SECRET"`
	JwtSecret   string        `envconfig:"JWT_SECRET"`
	MaxTokenAge time.Duration `envconfig:"MAX_TOKEN_AGE" default:"5m"`
	Leeway      time.Duration `envconfig:"LEEWAY" default:"30s"`
}

// BillPay configures the merchant API the gateway calls for payments made
// against a bill identifier.
type BillPay struct {
	Enabled    bool          `envconfig:"ENABLED" default:"false"`
	HMACSecret string        `envconfig:"HMAC_SECRET"`
	JwtSecret  string        `envconfig:"JWT_SECRET"`
	Leeway     time.Duration `envconfig:"LEEWAY" default:"30s"`
}

// Auth returns the authenticator settings for BillPay requests.
func (b *BillPay) Auth() *Webhook {
	return &Webhook{HMACSecret: b.HMACSecret, JwtSecret: b.JwtSecret, Leeway: b.Leeway}
}

type Donation struct {
	ReferencePrefix     string `envconfig:"REFERENCE_PREFIX" default:"RHCI"`
	CountryCode         string `envconfig:"COUNTRY_CODE" default:"255"`
	Milestones          []int  `envconfig:"MILESTONES" default:"25,50,75,100"`
	SandboxAutoComplete bool   `envconfig:"SANDBOX_AUTO_COMPLETE" default:"false"`
	ManualUpdates       bool   `envconfig:"MANUAL_UPDATES" default:"false"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[donation]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	Kafka     *Kafka     `envconfig:"KAFKA"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Gateway   *Gateway   `envconfig:"AZAMPAY"`
	Currency  *Currency  `envconfig:"CURRENCY"`
	Webhook   *Webhook   `envconfig:"WEBHOOK"`
	BillPay   *BillPay   `envconfig:"BILLPAY"`
	Donation  *Donation  `envconfig:"DONATION"`
}
