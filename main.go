package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"i4.energy/across/espat/at"
	"i4.energy/across/espat/esp"
)

const usage = `usage: espat [flags] <command> [args]

commands:
  version            print the firmware version
  scan               list visible access points
  status             print link status and local addresses
  join <ssid> <pwd>  join an access point (station mode)
  ping <host>        ping a host from the module
  serve              run the HTTP API (default)

flags:
`

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port the module is attached to")
	flag.Int("baud-rate", esp.DefaultBaudRate, "Baud rate for serial communication")
	flag.String("tcp-address", "", "host:port of a serial-to-TCP bridge, used instead of the serial port")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Duration("at-timeout", esp.DefaultATTimeout, "Default reply timeout")
	configFile := flag.String("config", "", "Path to a TOML configuration file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := openDevice(ctx, config, logger)
	if err != nil {
		logger.Error("Failed to open module", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"serve"}
	}
	if err := run(ctx, d, config, logger, os.Stdout, args); err != nil {
		logger.Error("Command failed", "command", args[0], "error", err)
		d.Close()
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openDevice(ctx context.Context, config *Config, logger *slog.Logger) (*esp.Device, error) {
	var dialer esp.Dialer = esp.SerialDialer{
		PortName: config.SerialPort,
		BaudRate: config.BaudRate,
	}
	if config.TCPAddress != "" {
		dialer = esp.TCPDialer{Address: config.TCPAddress}
	}

	deviceConfig, err := esp.NewConfigBuilder().
		WithDialer(dialer).
		WithLogger(logger.With("component", "esp")).
		WithATTimeout(config.ATTimeout).
		Build()
	if err != nil {
		return nil, err
	}
	return esp.New(ctx, deviceConfig)
}

// run executes one command against d, writing results to out.
func run(ctx context.Context, d *esp.Device, config *Config, logger *slog.Logger, out io.Writer, args []string) error {
	switch args[0] {
	case "version":
		v, err := d.Version(ctx)
		if err != nil {
			return err
		}
		for _, line := range dataLines(v) {
			fmt.Fprintln(out, line)
		}
		return nil

	case "scan":
		aps, err := d.ScanAPs(ctx)
		if err != nil {
			return err
		}
		for _, ap := range aps {
			fmt.Fprintf(out, "%-32s %s %4d dBm ch %2d ecn %d\n", ap.SSID, ap.MAC, ap.RSSI, ap.Channel, ap.Encryption)
		}
		return nil

	case "status":
		status, err := d.IPStatus(ctx)
		if err != nil {
			return err
		}
		addrs, err := d.LocalIP(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Join(append(dataLines(status), dataLines(addrs)...), "\n"))
		return nil

	case "join":
		if len(args) != 3 {
			return errors.New("join: want <ssid> <pwd>")
		}
		if err := d.SetOprToStation(ctx, at.ScopeCurrent, at.ScopeCurrent); err != nil {
			return err
		}
		return d.JoinAP(ctx, args[1], args[2], at.ScopeCurrent)

	case "ping":
		if len(args) != 2 {
			return errors.New("ping: want <host>")
		}
		return d.Ping(ctx, args[1])

	case "serve":
		return serve(ctx, d, config, logger)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, d *esp.Device, config *Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Device: d,
		},
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	return httpServer.Shutdown(shutdownCtx)
}
