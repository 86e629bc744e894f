package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type WalletConfig struct {
	Address string `mapstructure:"address"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type ExchangeConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type MonitorConfig struct {
	RefreshIntervalSeconds int      `mapstructure:"refresh_interval_seconds"`
	RetryDelaySeconds      int      `mapstructure:"retry_delay_seconds"`
	PriceSymbols           []string `mapstructure:"price_symbols"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (m MonitorConfig) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshIntervalSeconds) * time.Second
}

func (m MonitorConfig) RetryDelay() time.Duration {
	return time.Duration(m.RetryDelaySeconds) * time.Second
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func Load(configPath string) (*Config, error) {
	// Credentials commonly live in a .env next to the binary; a missing
	// file just means the real environment is used.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hyperliquid-monitor")
	}

	v.SetEnvPrefix("HLMON")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.base_url", "https://api.hyperliquid.xyz/info")
	v.SetDefault("exchange.timeout_seconds", 30)

	v.SetDefault("monitor.refresh_interval_seconds", 300)
	v.SetDefault("monitor.retry_delay_seconds", 60)
	v.SetDefault("monitor.price_symbols", []string{"BTC", "ETH", "SOL"})

	v.SetDefault("cache.ttl_seconds", 30)

	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// overrideFromEnv honors the flat variable names the deployment
// environment already uses, on top of viper's HLMON_ prefixed ones.
func overrideFromEnv(config *Config) {
	if addr := os.Getenv("HL_WALLET_ADDRESS"); addr != "" {
		config.Wallet.Address = addr
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		config.Telegram.ChatID = chatID
	}
	if interval := os.Getenv("REFRESH_INTERVAL_SECONDS"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil {
			config.Monitor.RefreshIntervalSeconds = n
		}
	}
	if symbols := os.Getenv("PRICE_SYMBOLS"); symbols != "" {
		config.Monitor.PriceSymbols = splitSymbols(symbols)
	}
	if timeout := os.Getenv("API_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil {
			config.Exchange.TimeoutSeconds = n
		}
	}
	if ttl := os.Getenv("CACHE_DURATION"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil {
			config.Cache.TTLSeconds = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

var placeholderPrefixes = []string{"your_", "YOUR_", "example_", "EXAMPLE_"}

func isPlaceholder(value string) bool {
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// Validate rejects missing required values and template placeholders
// that were never filled in.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"wallet address (HL_WALLET_ADDRESS)", c.Wallet.Address},
		{"telegram bot token (TELEGRAM_BOT_TOKEN)", c.Telegram.BotToken},
		{"telegram chat id (TELEGRAM_CHAT_ID)", c.Telegram.ChatID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
		if isPlaceholder(r.value) {
			return fmt.Errorf("%s contains a placeholder value", r.name)
		}
	}

	if c.Monitor.RefreshIntervalSeconds < 1 {
		return fmt.Errorf("refresh interval must be at least 1 second")
	}
	if c.Exchange.TimeoutSeconds < 1 {
		return fmt.Errorf("api timeout must be at least 1 second")
	}
	if len(c.Monitor.PriceSymbols) == 0 {
		return fmt.Errorf("at least one price symbol must be configured")
	}
	return nil
}
