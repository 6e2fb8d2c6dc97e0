package esp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"i4.energy/across/espat/at"
)

// Device represents an ESP8266 module running the AT firmware.
//
// Every method issues one command and blocks until the reply is complete or
// its timeout elapsed. A Device is not safe for concurrent use: callers must
// not issue a new command while another one is still waiting for its reply.
type Device struct {
	// session performs all reads and writes on the transport
	session *Session
	// transport provides the physical connection to the module (serial, TCP, etc.)
	transport Transport
	// config contains the device configuration settings
	config Config
	logger *slog.Logger
	// closed indicates if the device has been shut down
	closed bool
}

// New creates a new Device with the given configuration. It establishes the
// transport connection, discards whatever the module printed before, and
// checks that the module answers AT.
//
// Returns an error if the transport connection or the liveness check fails.
func New(ctx context.Context, config Config) (*Device, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	d := &Device{
		session:   NewSession(transport, config),
		transport: transport,
		config:    config,
		logger:    config.Logger,
	}

	if err := d.session.Drain(); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize device: %w", err)
	}
	if !config.SkipProbe {
		if err := d.Kick(ctx); err != nil {
			transport.Close()
			return nil, fmt.Errorf("initialize device: %w", err)
		}
	}
	return d, nil
}

// Session exposes the read primitives for commands this package does not
// cover. The caller must follow the same drain-before-write discipline.
func (d *Device) Session() *Session {
	return d.session
}

// Close releases the transport. After calling Close(), the device cannot be
// reused.
func (d *Device) Close() error {
	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	if d.transport != nil {
		return d.transport.Close()
	}
	return nil
}

// send drains stale input and writes cmd.
func (d *Device) send(cmd string) error {
	if d.closed {
		return ErrAlreadyClosed
	}
	if d.transport == nil {
		return ErrNotInitialized
	}
	return d.session.WriteLine(cmd)
}

// expect issues cmd and waits for one of accept or reject. It succeeds only
// when an accept token is present in the reply. The reply is returned in
// every case.
func (d *Device) expect(ctx context.Context, cmd string, timeout time.Duration, accept []string, reject ...string) (string, error) {
	if err := d.send(cmd); err != nil {
		return "", err
	}
	reply, err := d.session.Find(ctx, timeout, append(append([]string(nil), accept...), reject...)...)
	for _, token := range accept {
		if strings.Contains(reply, token) {
			return reply, nil
		}
	}
	for _, token := range reject {
		if strings.Contains(reply, token) {
			return reply, fmt.Errorf("%s: %w: %s", cmd, ErrUnexpectedReply, token)
		}
	}
	return reply, fmt.Errorf("%s: %w", cmd, err)
}

// expectOK issues cmd and waits for OK.
func (d *Device) expectOK(ctx context.Context, cmd string, timeout time.Duration) error {
	_, err := d.expect(ctx, cmd, timeout, []string{at.OK})
	return err
}

// query issues cmd and extracts the text between begin and end once OK
// arrived.
func (d *Device) query(ctx context.Context, cmd, begin, end string, timeout time.Duration) (string, error) {
	if err := d.send(cmd); err != nil {
		return "", err
	}
	out, err := d.session.FindAndExtract(ctx, timeout, at.OK, begin, end)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return out, nil
}

// Kick checks that the module answers AT.
func (d *Device) Kick(ctx context.Context) error {
	if err := d.expectOK(ctx, at.CmdAt, 0); err != nil {
		if errors.Is(err, ErrTimeout) {
			return fmt.Errorf("%w: %w", ErrNotResponding, err)
		}
		return err
	}
	return nil
}

// Restart resets the module and waits until it answers again.
//
// After AT+RST is acknowledged the module is left alone for RestartDelay,
// then probed with AT every 100ms for up to RestartWindow. Once it answers,
// Restart waits another RestartSettle before returning.
func (d *Device) Restart(ctx context.Context) error {
	if err := d.expectOK(ctx, at.CmdReset, 0); err != nil {
		return err
	}
	if err := sleep(ctx, d.config.RestartDelay); err != nil {
		return err
	}

	start := time.Now()
	for time.Since(start) < d.config.RestartWindow {
		err := d.Kick(ctx)
		if err == nil {
			d.logger.Info("module restarted", "after", time.Since(start))
			return sleep(ctx, d.config.RestartSettle)
		}
		// Only silence and boot noise are worth another probe.
		retry := errors.Is(err, ErrNotResponding) || errors.Is(err, ErrResponseTooLarge)
		if !retry || ctx.Err() != nil {
			return fmt.Errorf("restart: %w", err)
		}
		if err := sleep(ctx, restartPoll); err != nil {
			return err
		}
	}
	return fmt.Errorf("restart: %w", ErrNotResponding)
}

// Version returns the firmware banner printed by AT+GMR.
func (d *Device) Version(ctx context.Context) (string, error) {
	if d.closed {
		return "", ErrAlreadyClosed
	}
	if err := sleep(ctx, d.config.VersionDelay); err != nil {
		return "", err
	}
	return d.query(ctx, at.CmdVersion, at.EchoEnd, at.ReplyEnd, timeoutVersion)
}

// SetEcho switches command echo on or off.
func (d *Device) SetEcho(ctx context.Context, on bool) error {
	return d.expectOK(ctx, at.Echo(on), 0)
}

// Restore resets all persisted settings to factory defaults.
func (d *Device) Restore(ctx context.Context) error {
	return d.expectOK(ctx, at.CmdRestore, 0)
}

// SetUART changes the module's UART rate and, once the module acknowledged
// the change at the old rate, switches the transport to the new one.
func (d *Device) SetUART(ctx context.Context, baud int, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	if baud <= 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidArgument, baud)
	}
	if err := d.expectOK(ctx, at.SetUART(baud, scope), timeoutUART); err != nil {
		return err
	}
	if err := d.transport.SetBaudRate(baud); err != nil {
		return fmt.Errorf("switch transport to %d baud: %w", baud, err)
	}
	d.logger.Info("uart rate changed", "baud", baud, "scope", scope.String())
	return nil
}

// DeepSleep puts the module to sleep for ms milliseconds.
func (d *Device) DeepSleep(ctx context.Context, ms uint32) error {
	return d.expectOK(ctx, at.DeepSleep(ms), 0)
}
