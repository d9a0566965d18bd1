package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Exit codes used when the process cannot start with the given configuration.
const (
	ExitMissingConfig = 1
	ExitInvalidConfig = 2
)

type HTTP struct {
	Host            string
	Port            int `validate:"gte=0,lte=65535"`
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name    string `validate:"required"`
	Env     string
	Metrics HTTP
	Ops     HTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlsec"`
}

type DB struct {
	Driver             string `validate:"oneof=postgres mysql sqlite"`
	DSN                string `validate:"required"`
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Telegram struct {
	Token                  string  `validate:"required"`
	LongPollingTimeoutSec  int     `validate:"gte=0"`
	ConversationTimeoutSec int     `validate:"gte=0"`
	SendRatePerSec         float64 `validate:"gte=0"`
	SendBurst              int
	ErrorRetrySec          int
}

type Language struct {
	Default  string   `validate:"required"`
	Fallback string   `validate:"required"`
	Enabled  []string `validate:"required,min=1"`
}

type CreditCard struct {
	Token         string
	MinAmount     int64
	MaxAmount     int64
	Presets       []int64
	FeePercentage float64 `validate:"gte=0,lte=100"`
	FeeFixed      int64
	NameRequired  bool
	EmailRequired bool
	PhoneRequired bool
}

type Payments struct {
	CurrencyCode   string `validate:"required,len=3"`
	CurrencyExp    int32  `validate:"gte=0,lte=4"`
	CurrencySymbol string `validate:"required"`
	CreditCard     CreditCard
}

type Appearance struct {
	DisplayWelcomeMessage bool
	RefillOnCheckout      bool
}

type S3 struct {
	Bucket string
	Region string
	Prefix string
}

type Storage struct {
	Driver   string `validate:"omitempty,oneof=local s3"`
	LocalDir string
	S3       S3
}

type Kafka struct {
	Enabled bool
	Brokers string
	Topic   string
}

type Ops struct {
	PasswordHash string
}

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	DB         DB
	Redis      Redis `mapstructure:"redis"`
	Telegram   Telegram
	Language   Language
	Payments   Payments
	Appearance Appearance
	Storage    Storage
	Kafka      Kafka
	Ops        Ops
}

func (t Telegram) PollTimeout() time.Duration {
	return time.Duration(t.LongPollingTimeoutSec) * time.Second
}

// ConversationTimeout is zero when conversations never expire.
func (t Telegram) ConversationTimeout() time.Duration {
	return time.Duration(t.ConversationTimeoutSec) * time.Second
}

var ErrMissingConfig = errors.New("config: file not readable")

// Parse reads and validates the configuration file at path, overlaid with APP_* env vars.
func Parse(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingConfig, path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load is Parse for main packages: it exits with ExitMissingConfig or ExitInvalidConfig.
func Load(path string) *Config {
	c, err := Parse(path)
	if errors.Is(err, ErrMissingConfig) {
		log.Printf("read config: %v", err)
		os.Exit(ExitMissingConfig)
	}
	if err != nil {
		log.Printf("invalid config: %v", err)
		os.Exit(ExitInvalidConfig)
	}
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chatshop")
	v.SetDefault("app.metrics.port", 9100)
	v.SetDefault("app.ops.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("telegram.longpollingtimeoutsec", 30)
	v.SetDefault("telegram.conversationtimeoutsec", 1800)
	v.SetDefault("telegram.sendratepersec", 25)
	v.SetDefault("telegram.sendburst", 5)
	v.SetDefault("telegram.errorretrysec", 5)
	v.SetDefault("language.default", "en")
	v.SetDefault("language.fallback", "en")
	v.SetDefault("language.enabled", []string{"en"})
	v.SetDefault("payments.currencycode", "EUR")
	v.SetDefault("payments.currencyexp", 2)
	v.SetDefault("payments.currencysymbol", "€")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.localdir", "./data/images")
	v.SetDefault("redis.ttlsec", 300)
	v.SetDefault("jwt.issuer", "chatshop-ops")
	v.SetDefault("jwt.accesstokenttlmin", 60)
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	cc := c.Payments.CreditCard
	if cc.Token != "" && cc.MinAmount > cc.MaxAmount {
		return fmt.Errorf("validate config: payments.creditcard.minamount %d > maxamount %d", cc.MinAmount, cc.MaxAmount)
	}
	if !contains(c.Language.Enabled, c.Language.Default) {
		return fmt.Errorf("validate config: default language %q is not enabled", c.Language.Default)
	}
	if c.Storage.Driver == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("validate config: storage.s3.bucket is required")
	}
	if c.Kafka.Enabled && (c.Kafka.Brokers == "" || c.Kafka.Topic == "") {
		return fmt.Errorf("validate config: kafka brokers and topic are required when enabled")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
