package esp

import (
	"context"
	"fmt"

	"i4.energy/across/espat/at"
)

// WiFiMode queries the operating mode.
func (d *Device) WiFiMode(ctx context.Context, scope at.Scope) (at.WiFiMode, error) {
	if !scope.Valid() {
		return 0, ErrInvalidScope
	}
	field, err := d.query(ctx, at.QueryWiFiMode(scope), ":", at.ReplyEnd, 0)
	if err != nil {
		return 0, err
	}
	return at.ParseWiFiMode(field)
}

// SetWiFiMode switches to mode unless the module already reports it. The
// current mode is read with the query scope and written with the set scope.
func (d *Device) SetWiFiMode(ctx context.Context, mode at.WiFiMode, query, set at.Scope) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: wifi mode %d", ErrInvalidMode, mode)
	}
	if !query.Valid() || !set.Valid() {
		return ErrInvalidScope
	}
	current, err := d.WiFiMode(ctx, query)
	if err != nil {
		return err
	}
	if current == mode {
		return nil
	}
	_, err = d.expect(ctx, at.SetWiFiMode(mode, set), 0, []string{at.OK, at.NoChange})
	return err
}

// SetOprToStation switches the module to station mode.
func (d *Device) SetOprToStation(ctx context.Context, query, set at.Scope) error {
	return d.SetWiFiMode(ctx, at.ModeStation, query, set)
}

// SetOprToSoftAP switches the module to soft access point mode.
func (d *Device) SetOprToSoftAP(ctx context.Context, query, set at.Scope) error {
	return d.SetWiFiMode(ctx, at.ModeSoftAP, query, set)
}

// SetOprToStationSoftAP enables both station and soft access point.
func (d *Device) SetOprToStationSoftAP(ctx context.Context, query, set at.Scope) error {
	return d.SetWiFiMode(ctx, at.ModeStationSoftAP, query, set)
}

// WiFiModeList returns the mode range reported by AT+CWMODE=?.
func (d *Device) WiFiModeList(ctx context.Context) (string, error) {
	return d.query(ctx, at.CmdWiFiModeList, "+CWMODE:(", ")"+at.ReplyEnd, 0)
}

// CurrentAP returns the raw AT+CWJAP? reply. A module that is not joined
// answers "No AP", which is not an error.
func (d *Device) CurrentAP(ctx context.Context, scope at.Scope) (string, error) {
	if !scope.Valid() {
		return "", ErrInvalidScope
	}
	return d.expect(ctx, at.QueryAP(scope), 0, []string{at.OK, at.NoAP})
}

// APList returns the raw scan result of AT+CWLAP.
func (d *Device) APList(ctx context.Context) (string, error) {
	return d.query(ctx, at.CmdListAP, at.EchoEnd, at.ReplyEnd, timeoutListAP)
}

// ScanAPs runs AT+CWLAP and parses the result.
func (d *Device) ScanAPs(ctx context.Context) ([]at.AccessPoint, error) {
	if err := d.send(at.CmdListAP); err != nil {
		return nil, err
	}
	reply, err := d.session.Find(ctx, timeoutListAP, at.OK)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", at.CmdListAP, err)
	}
	return at.ParseAPList(reply)
}

// JoinAP connects the station to an access point.
func (d *Device) JoinAP(ctx context.Context, ssid, pwd string, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	if ssid == "" {
		return fmt.Errorf("%w: empty ssid", ErrInvalidArgument)
	}
	_, err := d.expect(ctx, at.JoinAP(ssid, pwd, scope), timeoutJoinAP, []string{at.OK}, at.FAIL)
	return err
}

// LeaveAP disconnects the station.
func (d *Device) LeaveAP(ctx context.Context) error {
	return d.expectOK(ctx, at.CmdQuitAP, 0)
}

// SoftAPParam returns the soft access point configuration.
func (d *Device) SoftAPParam(ctx context.Context, scope at.Scope) (string, error) {
	if !scope.Valid() {
		return "", ErrInvalidScope
	}
	return d.query(ctx, at.QuerySoftAP(scope), at.EchoEnd, at.ReplyEnd, timeoutSoftAPQuery)
}

// SetSoftAPParam configures the soft access point. chl is the channel, ecn
// the encryption method as numbered by the firmware.
func (d *Device) SetSoftAPParam(ctx context.Context, ssid, pwd string, chl, ecn int, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	_, err := d.expect(ctx, at.SetSoftAP(ssid, pwd, chl, ecn, scope), timeoutSoftAPSet, []string{at.OK}, at.ERROR)
	return err
}

// JoinedDeviceIP lists the stations connected to the soft access point.
func (d *Device) JoinedDeviceIP(ctx context.Context) (string, error) {
	return d.query(ctx, at.CmdListClients, at.EchoEnd, at.ReplyEnd, 0)
}

// DHCP returns the DHCP state.
func (d *Device) DHCP(ctx context.Context, scope at.Scope) (string, error) {
	if !scope.Valid() {
		return "", ErrInvalidScope
	}
	return d.query(ctx, at.QueryDHCP(scope), at.EchoEnd, at.LineOK, timeoutDHCPQuery)
}

// SetDHCP enables or disables DHCP for mode (0 soft AP, 1 station, 2 both).
func (d *Device) SetDHCP(ctx context.Context, mode int, enable bool, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	if mode < 0 || mode > 2 {
		return fmt.Errorf("%w: dhcp mode %d", ErrInvalidMode, mode)
	}
	en := 0
	if enable {
		en = 1
	}
	_, err := d.expect(ctx, at.SetDHCP(mode, en, scope), timeoutDHCPSet, []string{at.OK}, at.ERROR)
	return err
}

// SetAutoConnect controls whether the station joins the saved AP on boot.
func (d *Device) SetAutoConnect(ctx context.Context, on bool) error {
	return d.expectOK(ctx, at.AutoConnect(on), 0)
}

// StationMAC returns the station MAC address reply.
func (d *Device) StationMAC(ctx context.Context, scope at.Scope) (string, error) {
	if !scope.Valid() {
		return "", ErrInvalidScope
	}
	return d.query(ctx, at.QueryStationMAC(scope), at.EchoEnd, at.ReplyEnd, timeoutAddrQuery)
}

func (d *Device) SetStationMAC(ctx context.Context, mac string, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	return d.expectOK(ctx, at.SetStationMAC(mac, scope), 0)
}

// StationIP returns the station IP, gateway and netmask reply.
func (d *Device) StationIP(ctx context.Context, scope at.Scope) (string, error) {
	if !scope.Valid() {
		return "", ErrInvalidScope
	}
	return d.query(ctx, at.QueryStationIP(scope), at.EchoEnd, at.ReplyEnd, timeoutAddrQuery)
}

func (d *Device) SetStationIP(ctx context.Context, ip, gateway, netmask string, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	return d.expectOK(ctx, at.SetStationIP(ip, gateway, netmask, scope), 0)
}

// APIP returns the soft access point IP reply.
func (d *Device) APIP(ctx context.Context, scope at.Scope) (string, error) {
	if !scope.Valid() {
		return "", ErrInvalidScope
	}
	return d.query(ctx, at.QueryAPIP(scope), at.EchoEnd, at.ReplyEnd, timeoutAddrQuery)
}

func (d *Device) SetAPIP(ctx context.Context, ip string, scope at.Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	return d.expectOK(ctx, at.SetAPIP(ip, scope), 0)
}

// StartSmartConfig starts SmartConfig of the given type (1 ESP-TOUCH,
// 2 AirKiss, 3 both).
func (d *Device) StartSmartConfig(ctx context.Context, kind int) error {
	return d.expectOK(ctx, at.StartSmartConfig(kind), 0)
}

func (d *Device) StopSmartConfig(ctx context.Context) error {
	return d.expectOK(ctx, at.CmdStopSmart, 0)
}
