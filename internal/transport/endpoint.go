// Package transport implements the TCP endpoint the framing socket is
// layered on (C1): connect, reconnect, blocking send/receive, and the
// endpoint-address parsing rules from the data model.
package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rjboer/goadb/internal/adberr"
)

// Addr is a host/port pair. Host may arrive as "host:port"; ParseAddr splits
// on the last colon and, if the suffix isn't a valid port, falls back to
// defaultPort with the whole input treated as host.
type Addr struct {
	Host string
	Port int
}

func (a Addr) String() string { return net.JoinHostPort(a.Host, strconv.Itoa(a.Port)) }

// ParseAddr parses s as "host:port" or bare "host", applying defaultPort
// when no valid port suffix is present.
func ParseAddr(s string, defaultPort int) Addr {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return Addr{Host: s, Port: defaultPort}
	}
	host, portStr := s[:idx], s[idx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return Addr{Host: s, Port: defaultPort}
	}
	return Addr{Host: host, Port: port}
}

// Dialer opens a network connection. net.Dialer satisfies it; tests
// substitute a fake that hands back an in-memory net.Pipe end.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
}

// Endpoint owns exactly one TCP connection to a daemon. It is not safe for
// concurrent use by multiple flows of control.
type Endpoint struct {
	dial   Dialer
	conn   net.Conn
	dialed string // address actually dialed, for Reconnect

	ReceiveBufferSize int
	WriteBufferSize   int
}

const (
	// DefaultReceiveBufferSize is the receive chunk size used by Receive.
	DefaultReceiveBufferSize = 40960
	// DefaultWriteBufferSize is the default WriteBufferSize. Send writes
	// the whole buffer in one call and does not consult it.
	DefaultWriteBufferSize = 1024
	dialTimeout            = 5 * time.Second
)

// New constructs a disconnected Endpoint. ReceiveBufferSize and
// WriteBufferSize default to the package constants and must be set, if at
// all, before Connect is called — they are construction-time tunables,
// not mutable process-wide state.
func New() *Endpoint {
	return &Endpoint{
		ReceiveBufferSize: DefaultReceiveBufferSize,
		WriteBufferSize:   DefaultWriteBufferSize,
		dial:              &net.Dialer{Timeout: dialTimeout},
	}
}

// SetDialer overrides the dialer; used by tests to inject a fake net.Conn
// pair instead of a real TCP socket, and by adb.WithDialer.
func (e *Endpoint) SetDialer(dial Dialer) { e.dial = dial }

// Connect opens the TCP connection for addr.
func (e *Endpoint) Connect(addr Addr) error {
	conn, err := e.dial.Dial("tcp", addr.String())
	if err != nil {
		return fmt.Errorf("adb: connect %s: %w", addr, err)
	}
	e.conn = conn
	e.dialed = addr.String()
	return nil
}

// Reconnect tears down any existing connection and reopens it against the
// same address used for the last successful Connect.
func (e *Endpoint) Reconnect() error {
	if e.dialed == "" {
		return fmt.Errorf("adb: reconnect: no prior address")
	}
	_ = e.Dispose()
	conn, err := e.dial.Dial("tcp", e.dialed)
	if err != nil {
		return fmt.Errorf("adb: reconnect %s: %w", e.dialed, err)
	}
	e.conn = conn
	return nil
}

// Send writes buf and returns the number of bytes actually written. A
// short write (fewer bytes written than len(buf), with no error) is
// surfaced as adberr.ErrEOF per the single-shot send contract.
func (e *Endpoint) Send(buf []byte) (int, error) {
	if e.conn == nil {
		return 0, fmt.Errorf("adb: not connected")
	}
	n, err := e.conn.Write(buf)
	if err != nil {
		if isTimeout(err) {
			return n, fmt.Errorf("%w: %v", adberr.ErrTimeout, err)
		}
		return n, err
	}
	if n < len(buf) {
		return n, adberr.ErrEOF
	}
	return n, nil
}

// Receive reads up to len(buf) bytes in one syscall: 0 on orderly remote
// close, a positive count on partial read, or an error on socket failure.
func (e *Endpoint) Receive(buf []byte) (int, error) {
	if e.conn == nil {
		return 0, fmt.Errorf("adb: not connected")
	}
	chunk := buf
	if max := e.ReceiveBufferSize; max > 0 && len(chunk) > max {
		chunk = chunk[:max]
	}
	n, err := e.conn.Read(chunk)
	if err != nil {
		if isTimeout(err) {
			return n, fmt.Errorf("%w: %v", adberr.ErrTimeout, err)
		}
		return n, err
	}
	return n, nil
}

// ReadFull loops Receive until want bytes have arrived into buf, the peer
// orderly-closes (returning a short count with a nil error), or an error
// occurs. Each iteration reads at most min(remaining, ReceiveBufferSize).
func (e *Endpoint) ReadFull(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := e.Receive(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}

// SetDeadline applies an absolute I/O deadline to the underlying
// connection. A zero Time clears it.
func (e *Endpoint) SetDeadline(t time.Time) error {
	if e.conn == nil {
		return fmt.Errorf("adb: not connected")
	}
	return e.conn.SetDeadline(t)
}

// GetStream returns the underlying byte stream for shell-mode passthrough.
func (e *Endpoint) GetStream() net.Conn { return e.conn }

// Dialed returns the address passed to the last successful Connect, for
// callers that need to open an additional connection to the same daemon
// (e.g. a fresh socket for a host-serial request or a sync transfer).
func (e *Endpoint) Dialed() string { return e.dialed }

// Connected reports whether the endpoint currently owns an open connection.
func (e *Endpoint) Connected() bool { return e.conn != nil }

// Dispose closes the underlying connection, if any. It is always safe to
// call, including on an already-disposed Endpoint.
func (e *Endpoint) Dispose() error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}
