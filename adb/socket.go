// Package adb implements the ADB host-server wire protocol: the framing
// socket (C2), the shell-mode byte stream (C5), the error/response model
// (C6) and a typed device client (C7) built on top of them.
package adb

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rjboer/goadb/internal/adberr"
	"github.com/rjboer/goadb/internal/adblog"
	"github.com/rjboer/goadb/internal/transport"
)

// Mode is the framing socket's current protocol mode. It advances only
// through explicit handshakes and never moves backwards short of closing
// the connection.
type Mode int

const (
	// ModeCommand accepts new host requests.
	ModeCommand Mode = iota
	// ModeTransport is bound to a specific device transport but still
	// speaks the host request/response protocol.
	ModeTransport
	// ModeSync is the binary sync subprotocol (§4.3).
	ModeSync
	// ModeShell is a raw passthrough byte stream (§4.5); no further
	// framing is applied.
	ModeShell
)

// DefaultPort is the default ADB daemon port.
const DefaultPort = 5037

// DefaultHost is the default ADB daemon host.
const DefaultHost = "127.0.0.1"

// Socket is the framing socket described in spec §4.2. It owns exactly one
// TCP endpoint and is not safe for concurrent use by multiple flows of
// control; a single flow owns it from Dial to Close.
type Socket struct {
	mu       sync.Mutex
	endpoint *transport.Endpoint
	mode     Mode
	log      adblog.Logger
}

// Option configures a Socket at construction time.
type Option func(*Socket)

// WithLogger injects a structured logger; the default discards everything.
func WithLogger(l adblog.Logger) Option {
	return func(s *Socket) { s.log = l }
}

// WithBufferSizes overrides the receive/write buffer tunables. Must be
// supplied at construction; mutating them after any I/O has occurred is
// not supported.
func WithBufferSizes(receive, write int) Option {
	return func(s *Socket) {
		if receive > 0 {
			s.endpoint.ReceiveBufferSize = receive
		}
		if write > 0 {
			s.endpoint.WriteBufferSize = write
		}
	}
}

// WithDialer overrides how the TCP connection is opened; any
// transport.Dialer works, and tests use it to inject in-memory pipes.
func WithDialer(d transport.Dialer) Option {
	return func(s *Socket) { s.endpoint.SetDialer(d) }
}

// Dial opens a framing socket to the ADB daemon at addr ("host:port", or
// bare host, which uses DefaultPort).
func Dial(addr string, opts ...Option) (*Socket, error) {
	s := &Socket{
		endpoint: transport.New(),
		mode:     ModeCommand,
		log:      adblog.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	target := transport.ParseAddr(addr, DefaultPort)
	if err := s.endpoint.Connect(target); err != nil {
		return nil, err
	}
	s.log.Debug("connected", adblog.Field{Key: "addr", Value: target.String()})
	return s, nil
}

// Mode reports the socket's current protocol mode.
func (s *Socket) Mode() Mode { return s.mode }

// Close disposes of the underlying TCP connection. The socket must not be
// used afterward.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint.Dispose()
}

// writeRequest encodes cmd as a host request on the wire: four ASCII hex
// digits giving len(cmd), then the command bytes.
func (s *Socket) writeRequest(cmd string) error {
	if len(cmd) > 0xffff {
		return adberr.Protocol("command too long: %d bytes", len(cmd))
	}
	frame := formatHexLen(len(cmd)) + cmd
	n, err := s.endpoint.Send([]byte(frame))
	if err != nil {
		s.disposeOnFatal(err)
		return err
	}
	if n != len(frame) {
		s.disposeOnFatal(adberr.ErrEOF)
		return adberr.ErrEOF
	}
	return nil
}

// readResponse reads the four-byte status token and, on FAIL, the
// hex-length-prefixed diagnostic that must follow before the caller is
// notified.
func (s *Socket) readResponse() (Response, error) {
	tok := make([]byte, 4)
	n, err := s.endpoint.ReadFull(tok)
	if err != nil {
		s.disposeOnFatal(err)
		return Response{}, err
	}
	if n < 4 {
		s.disposeOnFatal(adberr.ErrEOF)
		return Response{}, adberr.ErrEOF
	}
	switch string(tok) {
	case "OKAY":
		return okResponse(), nil
	case "FAIL":
		msg, err := s.readString()
		if err != nil {
			s.disposeOnFatal(err)
			return Response{}, err
		}
		return failResponse(msg), nil
	default:
		// Undefined by the daemon: report, don't fail.
		return Response{IOOk: true, Okay: false, Message: string(tok)}, nil
	}
}

// readString reads a hex-length-prefixed UTF-8 string (read_string). An
// immediate zero-byte read (EOF before any length bytes arrive) returns
// ("", nil) rather than an error, per spec §4.2.
func (s *Socket) readString() (string, error) {
	lenBuf := make([]byte, 4)
	n, err := s.endpoint.ReadFull(lenBuf)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n < 4 {
		return "", adberr.Protocol("short hex length prefix: got %d bytes", n)
	}
	length, err := parseHexLen(lenBuf)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := s.endpoint.ReadFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func parseHexLen(b []byte) (int, error) {
	n, err := strconv.ParseUint(strings.ToLower(string(b)), 16, 32)
	if err != nil {
		return 0, adberr.Protocol("malformed hex length %q", b)
	}
	return int(n), nil
}

func formatHexLen(n int) string { return fmt.Sprintf("%04x", n) }

// disposeOnFatal closes the connection for any Io(*) or Protocol(*)
// failure, per the propagation policy in spec §7: the caller's next
// operation on this instance must fail fast.
func (s *Socket) disposeOnFatal(err error) {
	if err == nil {
		return
	}
	if adberr.IsRecoverable(err) {
		return
	}
	_ = s.endpoint.Dispose()
}

// Request issues a raw host request and returns its response. The caller
// must not issue another request while the socket is in ModeSync or
// ModeShell.
func (s *Socket) Request(cmd string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeSync || s.mode == ModeShell {
		return Response{}, fmt.Errorf("adb: socket is in %v mode, cannot issue a new command", s.mode)
	}
	if err := s.writeRequest(cmd); err != nil {
		return Response{}, err
	}
	return s.readResponse()
}

// SetDevice binds the socket's transport to device (a serial, or "" for
// host:transport-any). On the daemon replying "device not found", it
// returns a *adberr.DeviceNotFound; any other failure propagates as-is.
func (s *Socket) SetDevice(device string) error {
	cmd := "host:transport-any"
	if device != "" {
		cmd = "host:transport:" + device
	}
	resp, err := s.Request(cmd)
	if err != nil {
		return err
	}
	if resp.Okay {
		s.mu.Lock()
		s.mode = ModeTransport
		s.mu.Unlock()
		return nil
	}
	if strings.EqualFold(resp.Message, "device not found") && device != "" {
		return &adberr.DeviceNotFound{Serial: device}
	}
	return &adberr.AdbFail{Message: resp.Message}
}

// Shell issues a shell:, shell,v2: or exec: request and, on success,
// switches the socket into ModeShell and returns the post-handshake byte
// stream wrapped by a ShellStream (C5). The socket must not be used for
// further framing afterward.
func (s *Socket) Shell(cmd string, variant ShellVariant) (*ShellStream, error) {
	req := string(variant) + cmd
	s.mu.Lock()
	if err := s.writeRequest(req); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	resp, err := s.readResponse()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !resp.Okay {
		s.mu.Unlock()
		return nil, &adberr.AdbFail{Message: resp.Message}
	}
	s.mode = ModeShell
	stream := s.endpoint.GetStream()
	s.mu.Unlock()
	return newShellStream(stream), nil
}

// ShellVariant selects which shell-family request prefix to send.
type ShellVariant string

const (
	ShellV1 ShellVariant = "shell:"
	ShellV2 ShellVariant = "shell,v2:"
	Exec    ShellVariant = "exec:"
)

// EnterSync issues "sync:" and, on success, switches the socket into
// ModeSync. The returned endpoint is the same TCP connection; callers
// drive it with the adb/syncproto package. Per spec §4.3, leaving sync
// mode with QUIT closes the underlying connection — the daemon does not
// return to command mode on the same socket.
func (s *Socket) EnterSync() (*transport.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeSync || s.mode == ModeShell {
		return nil, fmt.Errorf("adb: socket is in %v mode, cannot enter sync", s.mode)
	}
	if err := s.writeRequest("sync:"); err != nil {
		return nil, err
	}
	resp, err := s.readResponse()
	if err != nil {
		return nil, err
	}
	if !resp.Okay {
		return nil, &adberr.AdbFail{Message: resp.Message}
	}
	s.mode = ModeSync
	return s.endpoint, nil
}

func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeTransport:
		return "transport"
	case ModeSync:
		return "sync"
	case ModeShell:
		return "shell"
	default:
		return "unknown"
	}
}
