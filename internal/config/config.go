package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RICARTS"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Razorpay RazorpayConfig `mapstructure:"razorpay"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Rate     RateConfig     `mapstructure:"ratelimit"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MySQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	ProductTTL time.Duration `mapstructure:"product_ttl"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

type RazorpayConfig struct {
	KeyID     string        `mapstructure:"key_id"`
	KeySecret string        `mapstructure:"key_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MockMode  bool          `mapstructure:"mock_mode"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RateConfig struct {
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type NotifyConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

type SMTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]any{
	"app.env":                 "dev",
	"log.level":               "info",
	"log.format":              "json",
	"http.port":               "8080",
	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      30 * time.Second,
	"mysql.host":              "localhost",
	"mysql.port":              "3306",
	"mysql.user":              "root",
	"mysql.password":          "",
	"mysql.database":          "ricarts",
	"mysql.max_open_conns":    100,
	"mysql.max_idle_conns":    20,
	"mysql.conn_max_lifetime": 5 * time.Minute,
	"redis.addr":              "",
	"redis.password":          "",
	"redis.db":                0,
	"redis.product_ttl":       time.Minute,
	"rabbitmq.url":            "",
	"rabbitmq.exchange":       "order.exchange",
	"rabbitmq.queue":          "order.notifications",
	"razorpay.key_id":         "",
	"razorpay.key_secret":     "",
	"razorpay.base_url":       "https://api.razorpay.com/v1",
	"razorpay.currency":       "INR",
	"razorpay.timeout":        10 * time.Second,
	"razorpay.mock_mode":      false,
	"jwt.secret":              "",
	"ratelimit.rps":           10.0,
	"ratelimit.burst":         20,
	"ratelimit.idle_ttl":      30 * time.Minute,
	"outbox.poll_interval":    2 * time.Second,
	"outbox.batch_size":       50,
	"outbox.max_attempts":     10,
	"notify.max_retries":      3,
	"notify.backoff":          2 * time.Second,
	"smtp.host":               "",
	"smtp.port":               587,
	"smtp.username":           "",
	"smtp.password":           "",
	"smtp.from":               "orders@ricarts.local",
	"smtp.timeout":            10 * time.Second,
}

// Load reads .env (if present), then the optional config file at path, then
// RICARTS_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	if c.MySQL.Database == "" {
		problems = append(problems, "mysql.database is required")
	}
	if !c.Razorpay.MockMode && (c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "") {
		problems = append(problems, "razorpay.key_id and razorpay.key_secret are required unless razorpay.mock_mode is set")
	}
	if c.Outbox.MaxAttempts <= 0 {
		problems = append(problems, "outbox.max_attempts must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
