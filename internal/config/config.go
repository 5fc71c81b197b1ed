package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Market      Market      `mapstructure:"market"`
	Trading     Trading     `mapstructure:"trading"`
	Bonus       Bonus       `mapstructure:"bonus"`
	Leaderboard Leaderboard `mapstructure:"leaderboard"`
	Logger      Logger      `mapstructure:"logger"`
	Server      Server      `mapstructure:"server"`
	Database    Database    `mapstructure:"database"`
}

// Market holds the configuration for the remote market-data backend.
type Market struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Trading holds the configuration for the simulated trading rules.
type Trading struct {
	StartingBalance   float64 `mapstructure:"starting_balance"`
	MinLot            float64 `mapstructure:"min_lot"`
	BrokerFeeRate     float64 `mapstructure:"broker_fee_rate"`
	RegulatoryFeeRate float64 `mapstructure:"regulatory_fee_rate"`
	DepositoryFeeRate float64 `mapstructure:"depository_fee_rate"`
}

// Bonus holds the configuration for the daily login bonus.
type Bonus struct {
	DailyAmount float64 `mapstructure:"daily_amount"`
}

// Leaderboard holds the configuration for the leaderboard ranker.
type Leaderboard struct {
	Size        int    `mapstructure:"size"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	RefreshCron string `mapstructure:"refresh_cron"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("market.rate_limit", 10)      // requests per second
	viper.SetDefault("market.rate_limit_burst", 5) // burst size
	viper.SetDefault("trading.starting_balance", 100000)
	viper.SetDefault("trading.min_lot", 10)
	viper.SetDefault("trading.broker_fee_rate", 0.006)
	viper.SetDefault("trading.regulatory_fee_rate", 0.00015)
	viper.SetDefault("trading.depository_fee_rate", 0.001)
	viper.SetDefault("bonus.daily_amount", 500)
	viper.SetDefault("leaderboard.size", 50)
	viper.SetDefault("leaderboard.max_age_days", 7)
	viper.SetDefault("leaderboard.refresh_cron", "@every 15m")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
