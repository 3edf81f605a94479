package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file, environment variables
// (prefixed with PADLET_) or command line flags.
type Config struct {
	Headless    bool   `mapstructure:"headless"`
	Sandbox     bool   `mapstructure:"sandbox"`
	BrowserPath string `mapstructure:"browser_path"`

	ElementWaitTimeout   time.Duration `mapstructure:"element_wait_timeout"`
	InitialRenderDelay   time.Duration `mapstructure:"initial_render_delay"`
	PageSettleDelay      time.Duration `mapstructure:"page_settle_delay"`
	ContainerSettleDelay time.Duration `mapstructure:"container_settle_delay"`
	FinalSettleDelay     time.Duration `mapstructure:"final_settle_delay"`

	MaxScrollAttempts  int `mapstructure:"max_scroll_attempts"`
	StabilityWindow    int `mapstructure:"stability_window"`
	ViewportWidth      int `mapstructure:"viewport_width"`
	ViewportHeight     int `mapstructure:"viewport_height"`
	ExtractConcurrency int `mapstructure:"extract_concurrency"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Archive     bool   `mapstructure:"archive"`
	ArchivePath string `mapstructure:"archive_path"`

	TelegramBotToken string `mapstructure:"telegram_bot_token"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Headless:             true,
		Sandbox:              true,
		ElementWaitTimeout:   30 * time.Second,
		InitialRenderDelay:   3 * time.Second,
		PageSettleDelay:      time.Second,
		ContainerSettleDelay: 1500 * time.Millisecond,
		FinalSettleDelay:     time.Second,
		MaxScrollAttempts:    15,
		StabilityWindow:      2,
		ViewportWidth:        1920,
		ViewportHeight:       1080,
		ExtractConcurrency:   8,
		LogLevel:             "info",
		LogFormat:            LogFormatText,
		ArchivePath:          "./padlet_archive",
	}
}

// SetDefaults registers every key with viper so that environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("headless", d.Headless)
	v.SetDefault("sandbox", d.Sandbox)
	v.SetDefault("browser_path", d.BrowserPath)
	v.SetDefault("element_wait_timeout", d.ElementWaitTimeout)
	v.SetDefault("initial_render_delay", d.InitialRenderDelay)
	v.SetDefault("page_settle_delay", d.PageSettleDelay)
	v.SetDefault("container_settle_delay", d.ContainerSettleDelay)
	v.SetDefault("final_settle_delay", d.FinalSettleDelay)
	v.SetDefault("max_scroll_attempts", d.MaxScrollAttempts)
	v.SetDefault("stability_window", d.StabilityWindow)
	v.SetDefault("viewport_width", d.ViewportWidth)
	v.SetDefault("viewport_height", d.ViewportHeight)
	v.SetDefault("extract_concurrency", d.ExtractConcurrency)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("archive", d.Archive)
	v.SetDefault("archive_path", d.ArchivePath)
	v.SetDefault("telegram_bot_token", d.TelegramBotToken)
}

// LoadConfig reads configuration from the config file in path, the
// environment and any flags already bound to v.
func LoadConfig(v *viper.Viper, path string) (config Config, err error) {
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PADLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bot token is also accepted without the prefix.
	if err := v.BindEnv("telegram_bot_token", "PADLET_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ElementWaitTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.InitialRenderDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.PageSettleDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.ContainerSettleDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.FinalSettleDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxScrollAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.StabilityWindow, validation.Required, validation.Min(1)),
		validation.Field(&c.ViewportWidth, validation.Required, validation.Min(1)),
		validation.Field(&c.ViewportHeight, validation.Required, validation.Min(1)),
		validation.Field(&c.ExtractConcurrency, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
		validation.Field(&c.ArchivePath, validation.When(c.Archive, validation.Required)),
	)
}

// ValidateBot checks the settings the Telegram bot needs.
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	return nil
}
