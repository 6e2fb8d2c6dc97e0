package esp

import (
	"log/slog"
	"time"
)

const (
	// DefaultATTimeout bounds every reply that has no command specific timeout.
	DefaultATTimeout = time.Second

	// DefaultPayloadTimeout bounds the second phase of a frame read, in which
	// the announced payload bytes are collected. It does not depend on the
	// timeout the caller passed for the announcement itself.
	DefaultPayloadTimeout = 3 * time.Second

	// DefaultMaxResponseSize caps the text accumulated by a single read.
	DefaultMaxResponseSize = 8 << 10
)

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

type Config struct {
	Dialer          Dialer
	Logger          *slog.Logger
	ATTimeout       time.Duration
	PayloadTimeout  time.Duration
	MaxResponseSize int
	// VersionDelay is waited before AT+GMR is issued.
	VersionDelay time.Duration
	// RestartDelay, RestartWindow and RestartSettle drive Restart: wait
	// RestartDelay after AT+RST, probe with AT for up to RestartWindow, then
	// wait RestartSettle once the module answers.
	RestartDelay  time.Duration
	RestartWindow time.Duration
	RestartSettle time.Duration
	// SkipProbe disables the AT probe issued by New.
	SkipProbe bool
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = DefaultATTimeout
	}
	if c.PayloadTimeout == 0 {
		c.PayloadTimeout = DefaultPayloadTimeout
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	if c.VersionDelay == 0 {
		c.VersionDelay = 3 * time.Second
	}
	if c.RestartDelay == 0 {
		c.RestartDelay = 2 * time.Second
	}
	if c.RestartWindow == 0 {
		c.RestartWindow = 3 * time.Second
	}
	if c.RestartSettle == 0 {
		c.RestartSettle = 1500 * time.Millisecond
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithPayloadTimeout(d time.Duration) *ConfigBuilder {
	b.config.PayloadTimeout = d
	return b
}

func (b *ConfigBuilder) WithMaxResponseSize(n int) *ConfigBuilder {
	b.config.MaxResponseSize = n
	return b
}

func (b *ConfigBuilder) WithVersionDelay(d time.Duration) *ConfigBuilder {
	b.config.VersionDelay = d
	return b
}

// WithRestartTiming overrides the waits used by Restart.
func (b *ConfigBuilder) WithRestartTiming(delay, window, settle time.Duration) *ConfigBuilder {
	b.config.RestartDelay = delay
	b.config.RestartWindow = window
	b.config.RestartSettle = settle
	return b
}

func (b *ConfigBuilder) WithoutProbe() *ConfigBuilder {
	b.config.SkipProbe = true
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
