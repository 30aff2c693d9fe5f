package adb

import (
	"fmt"
	"strings"

	"github.com/rjboer/goadb/internal/adberr"
)

// ForwardSpec is one side of a port-forwarding rule: "tcp:<port>",
// "local:<path>", "localabstract:<name>", "localreserved:<name>",
// "localfilesystem:<path>", "dev:<path>" or "jdwp:<pid>".
type ForwardSpec string

// TCPForward builds a "tcp:<port>" spec.
func TCPForward(port int) ForwardSpec { return ForwardSpec(fmt.Sprintf("tcp:%d", port)) }

// ForwardPair is one entry of a host-serial:<serial>:list-forward
// listing: the serial, the local spec and the remote spec.
type ForwardPair struct {
	Serial string
	Local  ForwardSpec
	Remote ForwardSpec
}

// parseForwardList parses the body of a list-forward response: one
// "serial local remote" triple per line, whitespace-separated.
func parseForwardList(body string) []ForwardPair {
	var out []ForwardPair
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		out = append(out, ForwardPair{Serial: fields[0], Local: ForwardSpec(fields[1]), Remote: ForwardSpec(fields[2])})
	}
	return out
}

// Forward installs a port-forwarding rule for device.Serial: connections
// to local on the host are relayed to remote on the device.
func (d *Device) Forward(local, remote ForwardSpec) error {
	cmd := fmt.Sprintf("host-serial:%s:forward:%s;%s", d.serial, local, remote)
	resp, err := d.hostRequest(cmd)
	if err != nil {
		return err
	}
	if !resp.Okay {
		return &adberr.AdbFail{Message: resp.Message}
	}
	return nil
}

// ForwardRemove removes a previously installed forward rule identified
// by its local spec.
func (d *Device) ForwardRemove(local ForwardSpec) error {
	cmd := fmt.Sprintf("host-serial:%s:killforward:%s", d.serial, local)
	resp, err := d.hostRequest(cmd)
	if err != nil {
		return err
	}
	if !resp.Okay {
		return &adberr.AdbFail{Message: resp.Message}
	}
	return nil
}

// ForwardList returns every forward rule currently installed for
// device.Serial.
func (d *Device) ForwardList() ([]ForwardPair, error) {
	resp, body, err := d.hostRequestBody(fmt.Sprintf("host-serial:%s:list-forward", d.serial))
	if err != nil {
		return nil, err
	}
	if !resp.Okay {
		return nil, &adberr.AdbFail{Message: resp.Message}
	}
	all := parseForwardList(body)
	out := all[:0]
	for _, p := range all {
		if p.Serial == d.serial {
			out = append(out, p)
		}
	}
	return out, nil
}

// ConnectTCP asks the daemon to connect to a TCP/IP target identified by
// "host:port" (host:connect). Used with mDNS-discovered (C8) addresses
// or any already-paired wireless target; it does not perform the
// QR-code pairing handshake (out of scope, see Non-goals).
func ConnectTCP(addr string, target string, opts ...Option) error {
	s, err := Dial(addr, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	resp, err := s.Request("host:connect:" + target)
	if err != nil {
		return err
	}
	if !resp.Okay {
		return &adberr.AdbFail{Message: resp.Message}
	}
	// host:connect answers OKAY regardless of whether the TCP handshake
	// with target actually succeeded; the real verdict rides in the
	// string body that follows.
	msg, err := s.readString()
	if err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(msg), "unable to connect") {
		return &adberr.AdbFail{Message: msg}
	}
	return nil
}

// DisconnectTCP asks the daemon to drop a TCP/IP target (host:disconnect).
func DisconnectTCP(addr string, target string, opts ...Option) error {
	s, err := Dial(addr, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	resp, err := s.Request("host:disconnect:" + target)
	if err != nil {
		return err
	}
	if !resp.Okay {
		return &adberr.AdbFail{Message: resp.Message}
	}
	// host:disconnect also answers OKAY with a trailing informational
	// string (e.g. "disconnected <target>" or a not-found message).
	if _, err := s.readString(); err != nil {
		return err
	}
	return nil
}
