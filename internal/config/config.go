package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		RateLimit    time.Duration `mapstructure:"rate_limit"`
	} `mapstructure:"server"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`

	Redis struct {
		Enabled  bool          `mapstructure:"enabled"`
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	Postgres struct {
		Enabled bool   `mapstructure:"enabled"`
		DSN     string `mapstructure:"dsn"`
	} `mapstructure:"postgres"`

	Engine struct {
		TradeHistory   int    `mapstructure:"trade_history"`
		ReferencePrice string `mapstructure:"reference_price"`
	} `mapstructure:"engine"`

	WS struct {
		Queue        int           `mapstructure:"queue"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"ws"`

	MarketMaker struct {
		Enabled   bool          `mapstructure:"enabled"`
		Address   string        `mapstructure:"address"`
		Interval  time.Duration `mapstructure:"interval"`
		SpreadBps int64         `mapstructure:"spread_bps"`
		Size      string        `mapstructure:"size"`
	} `mapstructure:"marketmaker"`

	Predict struct {
		Multiplier  string        `mapstructure:"multiplier"`
		MinDuration time.Duration `mapstructure:"min_duration"`
		MaxDuration time.Duration `mapstructure:"max_duration"`
	} `mapstructure:"predict"`
}

// Load reads config/dexbook.yaml (or ./dexbook.yaml) and lets DEXBOOK_*
// environment variables override individual keys, e.g. DEXBOOK_SERVER_ADDR.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("dexbook")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEXBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// missing file is fine, defaults + env apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 100*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.dsn", "")

	v.SetDefault("engine.trade_history", 200)
	v.SetDefault("engine.reference_price", "0.5")

	v.SetDefault("ws.queue", 64)
	v.SetDefault("ws.write_timeout", 2*time.Second)

	v.SetDefault("marketmaker.enabled", true)
	v.SetDefault("marketmaker.address", "0x0000000000000000000000000000000000000bot")
	v.SetDefault("marketmaker.interval", 5*time.Second)
	v.SetDefault("marketmaker.spread_bps", 100)
	v.SetDefault("marketmaker.size", "100")

	v.SetDefault("predict.multiplier", "1.9")
	v.SetDefault("predict.min_duration", 10*time.Second)
	v.SetDefault("predict.max_duration", 24*time.Hour)
}
