package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string
	LogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	JWTSecret string
	JWTTTL    time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	SMSBaseURL string
	SMSAPIKey  string
	SMSSender  string

	CardGatewayURL    string
	CardGatewayKey    string
	CardWebhookSecret string

	CryptoRatesURL    string
	CryptoExplorerURL string
	CryptoExplorerKey string
	RateCacheTTLSecs  int

	FXRatesURL string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	NATSURL string

	FeeReminderCron  string
	CryptoExpiryCron string

	SettingsSeedFile string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lending"),
		MySQLUser: getenv("MYSQL_USER", "lending"),
		MySQLPass: getenv("MYSQL_PASS", "lending"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret: getenv("JWT_SECRET", ""),
		JWTTTL:    time.Duration(getint("JWT_TTL_MINUTES", 24*60)) * time.Minute,

		RateLimitRPS:   getint("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getint("RATE_LIMIT_BURST", 10),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SenderEmail:  getenv("SENDER_EMAIL", "no-reply@lending.local"),

		SMSBaseURL: getenv("SMS_BASE_URL", ""),
		SMSAPIKey:  getenv("SMS_API_KEY", ""),
		SMSSender:  getenv("SMS_SENDER", "LENDING"),

		CardGatewayURL:    getenv("CARD_GATEWAY_URL", "https://api.stripe.com"),
		CardGatewayKey:    getenv("CARD_GATEWAY_KEY", ""),
		CardWebhookSecret: getenv("CARD_WEBHOOK_SECRET", ""),

		CryptoRatesURL:    getenv("CRYPTO_RATES_URL", "https://api.coingecko.com/api/v3"),
		CryptoExplorerURL: getenv("CRYPTO_EXPLORER_URL", "https://api.blockcypher.com/v1"),
		CryptoExplorerKey: getenv("CRYPTO_EXPLORER_KEY", ""),
		RateCacheTTLSecs:  getint("RATE_CACHE_TTL_SECONDS", 60),

		FXRatesURL: getenv("FX_RATES_URL", "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"),

		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o-mini"),

		NATSURL: getenv("NATS_URL", ""),

		FeeReminderCron:  getenv("FEE_REMINDER_CRON", "0 * * * *"),
		CryptoExpiryCron: getenv("CRYPTO_EXPIRY_CRON", "*/5 * * * *"),

		SettingsSeedFile: getenv("SETTINGS_SEED_FILE", ""),
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// SMTPEnabled is false in local setups where mail is only logged.
func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) RateCacheTTL() time.Duration {
	return time.Duration(c.RateCacheTTLSecs) * time.Second
}
