package adb

import (
	"context"
	"strings"

	"github.com/rjboer/goadb/internal/adberr"
)

// DeviceState mirrors the state column of host:devices(-l) output.
type DeviceState int

const (
	StateUnknown DeviceState = iota
	StateDevice
	StateOffline
	StateUnauthorized
	StateBootloader
	StateRecovery
	StateSideload
	StateNoPermissions
	StateAuthorizing
	StateConnecting
)

func parseDeviceState(s string) DeviceState {
	switch strings.ToLower(s) {
	case "device":
		return StateDevice
	case "offline":
		return StateOffline
	case "unauthorized":
		return StateUnauthorized
	case "bootloader":
		return StateBootloader
	case "recovery":
		return StateRecovery
	case "sideload":
		return StateSideload
	case "no permissions", "no_permissions":
		return StateNoPermissions
	case "authorizing":
		return StateAuthorizing
	case "connecting":
		return StateConnecting
	default:
		return StateUnknown
	}
}

func (s DeviceState) String() string {
	switch s {
	case StateDevice:
		return "device"
	case StateOffline:
		return "offline"
	case StateUnauthorized:
		return "unauthorized"
	case StateBootloader:
		return "bootloader"
	case StateRecovery:
		return "recovery"
	case StateSideload:
		return "sideload"
	case StateNoPermissions:
		return "no permissions"
	case StateAuthorizing:
		return "authorizing"
	case StateConnecting:
		return "connecting"
	default:
		return "unknown"
	}
}

// DeviceInfo is one row of a host:devices-l listing.
type DeviceInfo struct {
	Serial      string
	State       DeviceState
	Product     string
	Model       string
	Device      string
	TransportID string
}

// parseDevicesLong parses the body of a host:devices-l response: one
// device per line, tab-separated serial/state, space-separated
// key:value properties after the state on -l listings.
func parseDevicesLong(body string) []DeviceInfo {
	var out []DeviceInfo
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		info := DeviceInfo{Serial: fields[0], State: parseDeviceState(fields[1])}
		for _, kv := range fields[2:] {
			parts := strings.SplitN(kv, ":", 2)
			if len(parts) != 2 {
				continue
			}
			switch parts[0] {
			case "product":
				info.Product = parts[1]
			case "model":
				info.Model = parts[1]
			case "device":
				info.Device = parts[1]
			case "transport_id":
				info.TransportID = parts[1]
			}
		}
		out = append(out, info)
	}
	return out
}

// GetDevices issues host:devices-l and returns the parsed device list.
func GetDevices(ctx context.Context, addr string, opts ...Option) ([]DeviceInfo, error) {
	s, err := Dial(addr, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return getDevicesOn(s)
}

func getDevicesOn(s *Socket) ([]DeviceInfo, error) {
	resp, err := s.Request("host:devices-l")
	if err != nil {
		return nil, err
	}
	if !resp.Okay {
		return nil, &adberr.AdbFail{Message: resp.Message}
	}
	body, err := s.readString()
	if err != nil {
		return nil, err
	}
	return parseDevicesLong(body), nil
}

// TrackDevices issues host:track-devices, which keeps the host connection
// open and streams a freshly parsed device list on every change. The
// returned channel is closed and the goroutine exits when cancel is
// called or the connection fails; the caller must always call cancel to
// release the socket.
func TrackDevices(ctx context.Context, addr string, opts ...Option) (<-chan []DeviceInfo, func(), error) {
	s, err := Dial(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	resp, err := s.Request("host:track-devices")
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	if !resp.Okay {
		s.Close()
		return nil, nil, &adberr.AdbFail{Message: resp.Message}
	}

	out := make(chan []DeviceInfo)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			body, err := s.readString()
			if err != nil {
				return
			}
			select {
			case out <- parseDevicesLong(body):
			case <-done:
				return
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	cancel := func() {
		select {
		case <-done:
		default:
			close(done)
		}
		s.Close()
	}
	return out, cancel, nil
}
