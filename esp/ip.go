package esp

import (
	"context"
	"fmt"

	"i4.energy/across/espat/at"
)

func validMuxID(id int) error {
	if id < 0 || id > at.MaxMuxID {
		return fmt.Errorf("%w: %d", ErrInvalidMuxID, id)
	}
	return nil
}

// IPStatus returns the AT+CIPSTATUS reply.
func (d *Device) IPStatus(ctx context.Context) (string, error) {
	if err := sleep(ctx, statusDelay); err != nil {
		return "", err
	}
	return d.query(ctx, at.CmdStatus, at.EchoEnd, at.ReplyEnd, 0)
}

// LocalIP returns the AT+CIFSR reply.
func (d *Device) LocalIP(ctx context.Context) (string, error) {
	return d.query(ctx, at.CmdLocalIP, at.EchoEnd, at.ReplyEnd, 0)
}

// EnableMUX allows up to five concurrent links. The firmware refuses while a
// link is open.
func (d *Device) EnableMUX(ctx context.Context) error {
	return d.setMux(ctx, true)
}

// DisableMUX goes back to a single link.
func (d *Device) DisableMUX(ctx context.Context) error {
	return d.setMux(ctx, false)
}

func (d *Device) setMux(ctx context.Context, on bool) error {
	_, err := d.expect(ctx, at.Mux(on), 0, []string{at.OK}, at.LinkIsBuilded)
	return err
}

func (d *Device) start(ctx context.Context, cmd string) error {
	_, err := d.expect(ctx, cmd, timeoutStart, []string{at.OK, at.AlreadyConnect}, at.ERROR)
	return err
}

// CreateTCP opens the single TCP link. An already open link counts as
// success.
func (d *Device) CreateTCP(ctx context.Context, addr string, port int) error {
	return d.start(ctx, at.Start(at.TCP, addr, port))
}

// CreateTCPMux opens TCP link id in multiplexed mode.
func (d *Device) CreateTCPMux(ctx context.Context, id int, addr string, port int) error {
	if err := validMuxID(id); err != nil {
		return err
	}
	return d.start(ctx, at.StartMux(id, at.TCP, addr, port))
}

// RegisterUDP opens the single UDP link.
func (d *Device) RegisterUDP(ctx context.Context, addr string, port int) error {
	return d.start(ctx, at.Start(at.UDP, addr, port))
}

// RegisterUDPMux opens UDP link id in multiplexed mode.
func (d *Device) RegisterUDPMux(ctx context.Context, id int, addr string, port int) error {
	if err := validMuxID(id); err != nil {
		return err
	}
	return d.start(ctx, at.StartMux(id, at.UDP, addr, port))
}

// ReleaseTCP closes the single link.
func (d *Device) ReleaseTCP(ctx context.Context) error {
	return d.expectOK(ctx, at.CmdClose, timeoutClose)
}

// UnregisterUDP closes the single link.
func (d *Device) UnregisterUDP(ctx context.Context) error {
	return d.ReleaseTCP(ctx)
}

// ReleaseTCPMux closes link id. A link that is not open counts as closed.
func (d *Device) ReleaseTCPMux(ctx context.Context, id int) error {
	if err := validMuxID(id); err != nil {
		return err
	}
	_, err := d.expect(ctx, at.CloseMux(id), timeoutClose, []string{at.OK, at.LinkIsNot})
	return err
}

// UnregisterUDPMux closes link id.
func (d *Device) UnregisterUDPMux(ctx context.Context, id int) error {
	return d.ReleaseTCPMux(ctx, id)
}

// SetTCPServerTimeout sets the idle timeout, in seconds, of server links.
func (d *Device) SetTCPServerTimeout(ctx context.Context, seconds int) error {
	if seconds < 0 || seconds > 7200 {
		return fmt.Errorf("%w: server timeout %d", ErrInvalidArgument, seconds)
	}
	return d.expectOK(ctx, at.ServerTimeout(seconds), 0)
}

// StartTCPServer listens on port. Multiplexed mode must be enabled first.
func (d *Device) StartTCPServer(ctx context.Context, port int) error {
	_, err := d.expect(ctx, at.ServerStart(port), 0, []string{at.OK, at.NoChange})
	return err
}

// StopTCPServer stops the server. The firmware only releases the listening
// socket on reset, so the module is restarted afterwards.
func (d *Device) StopTCPServer(ctx context.Context) error {
	if _, err := d.expect(ctx, at.CmdServerStop, 0, []string{at.EchoEnd}); err != nil {
		return err
	}
	return d.Restart(ctx)
}

// SetCIPMODE selects normal (0) or transparent (1) transmission.
func (d *Device) SetCIPMODE(ctx context.Context, mode int) error {
	if mode != 0 && mode != 1 {
		return fmt.Errorf("%w: transfer mode %d", ErrInvalidMode, mode)
	}
	_, err := d.expect(ctx, at.TransferMode(mode), timeoutShort, []string{at.OK}, at.LinkIsBuilded)
	return err
}

// SaveTransLink stores a transparent link that is opened on boot.
func (d *Device) SaveTransLink(ctx context.Context, mode int, ip string, port int) error {
	_, err := d.expect(ctx, at.SaveTransLink(mode, ip, port), timeoutShort, []string{at.OK}, at.ERROR)
	return err
}

// Ping pings host from the module.
func (d *Device) Ping(ctx context.Context, host string) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidArgument)
	}
	_, err := d.expect(ctx, at.Ping(host), timeoutShort, []string{at.OK}, at.ERROR)
	return err
}
