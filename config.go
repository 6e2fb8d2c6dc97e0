package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the module (e.g. 115200)
	BaudRate int
	// TCPAddress is host:port of a serial-to-TCP bridge. When set it is used
	// instead of SerialPort.
	TCPAddress string
	// BindAddress is the address the HTTP server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// ATTimeout bounds replies of commands without a specific timeout
	ATTimeout time.Duration
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.BindAddress = "0.0.0.0:8080"
		c.LogLevel = "info"
		c.ATTimeout = time.Second
		return nil
	}
}

type fileConfig struct {
	SerialPort  string `toml:"serial_port"`
	BaudRate    int    `toml:"baud_rate"`
	TCPAddress  string `toml:"tcp_address"`
	BindAddress string `toml:"bind_address"`
	LogLevel    string `toml:"log_level"`
	ATTimeout   string `toml:"at_timeout"`
}

// WithFile loads configuration from a TOML file. Only keys present in the
// file are applied. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("load config file: unknown key %q", undecoded[0].String())
		}

		if meta.IsDefined("serial_port") {
			c.SerialPort = strings.TrimSpace(raw.SerialPort)
		}
		if meta.IsDefined("baud_rate") {
			c.BaudRate = raw.BaudRate
		}
		if meta.IsDefined("tcp_address") {
			c.TCPAddress = strings.TrimSpace(raw.TCPAddress)
		}
		if meta.IsDefined("bind_address") {
			c.BindAddress = raw.BindAddress
		}
		if meta.IsDefined("log_level") {
			c.LogLevel = raw.LogLevel
		}
		if meta.IsDefined("at_timeout") {
			d, err := time.ParseDuration(raw.ATTimeout)
			if err != nil {
				return fmt.Errorf("load config file: at_timeout: %w", err)
			}
			c.ATTimeout = d
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if addr := os.Getenv("TCP_ADDRESS"); addr != "" {
			c.TCPAddress = addr
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if timeout := os.Getenv("AT_TIMEOUT"); timeout != "" {
			if d, err := time.ParseDuration(timeout); err == nil {
				c.ATTimeout = d
			}
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "tcp-address":
				c.TCPAddress = f.Value.String()
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			case "at-timeout":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.ATTimeout = d
				}
			}
		})
		return nil
	}
}
