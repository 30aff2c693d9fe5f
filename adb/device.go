package adb

import (
	"context"
	"io"
	"os"

	"github.com/rjboer/goadb/adb/syncproto"
)

// Device is a typed convenience layer over a framing socket already bound
// to one device transport (C7). A Device owns its socket exclusively; it
// is not safe for concurrent use by multiple flows of control, matching
// the framing socket's own contract (§5).
type Device struct {
	addr   string
	serial string
	socket *Socket
	opts   []Option
}

// ConnectDevice dials addr and binds the new socket's transport to serial
// (or "" for host:transport-any, the daemon's single-device shortcut).
func ConnectDevice(ctx context.Context, addr string, serial string, opts ...Option) (*Device, error) {
	s, err := Dial(addr, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.SetDevice(serial); err != nil {
		s.Close()
		return nil, err
	}
	return &Device{addr: addr, serial: serial, socket: s, opts: opts}, nil
}

// Serial returns the device's serial, or "" if it was opened via
// host:transport-any.
func (d *Device) Serial() string { return d.serial }

// Close closes the underlying framing socket.
func (d *Device) Close() error { return d.socket.Close() }

// hostRequest issues a host-serial request against a fresh socket bound
// to the daemon (not the device transport): host-serial:<serial>:...
// commands are host-protocol requests answered before any transport
// binding, so they cannot reuse d.socket once it has switched to
// ModeTransport.
func (d *Device) hostRequest(cmd string) (Response, error) {
	s, err := Dial(d.addr, d.opts...)
	if err != nil {
		return Response{}, err
	}
	defer s.Close()
	return s.Request(cmd)
}

// hostRequestBody is hostRequest plus the hex-length-prefixed string body
// that follows an OKAY on requests like list-forward, read over the same
// fresh socket before it's closed.
func (d *Device) hostRequestBody(cmd string) (Response, string, error) {
	s, err := Dial(d.addr, d.opts...)
	if err != nil {
		return Response{}, "", err
	}
	defer s.Close()
	resp, err := s.Request(cmd)
	if err != nil {
		return Response{}, "", err
	}
	if !resp.Okay {
		return resp, "", nil
	}
	body, err := s.readString()
	if err != nil {
		return resp, "", err
	}
	return resp, body, nil
}

// Shell runs cmd on the device and returns the shell-mode byte stream
// (C5), CRLF-normalized. The Device's socket switches to ModeShell and
// must not be used for further framing afterward; Close the returned
// stream (which closes the underlying connection) when done.
func (d *Device) Shell(cmd string) (io.ReadWriteCloser, error) {
	return d.socket.Shell(cmd, ShellV1)
}

// ShellV2 runs cmd using the shell,v2: protocol variant.
func (d *Device) ShellV2(cmd string) (io.ReadWriteCloser, error) {
	return d.socket.Shell(cmd, ShellV2)
}

// syncEndpoint opens a fresh socket bound to the same transport and
// switches it into sync mode: per spec §4.3, leaving sync mode (QUIT)
// closes the connection, so every sync operation on a Device gets its
// own socket rather than reusing d.socket.
func (d *Device) syncEndpoint() (*Socket, syncproto.Conn, error) {
	s, err := Dial(d.addr, d.opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := s.SetDevice(d.serial); err != nil {
		s.Close()
		return nil, nil, err
	}
	ep, err := s.EnterSync()
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, ep, nil
}

// Push copies src's contents to remotePath on the device with the given
// POSIX mode and mtime, reporting progress via observer (may be nil).
func (d *Device) Push(remotePath string, mode os.FileMode, mtime int64, size int64, src io.Reader, observer syncproto.ProgressFunc) error {
	s, conn, err := d.syncEndpoint()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := syncproto.Push(conn, remotePath, uint32(mode.Perm()), uint32(mtime), size, src, observer); err != nil {
		return err
	}
	return syncproto.WriteQuit(conn)
}

// Pull copies remotePath from the device into dst, reporting progress via
// observer (may be nil). total is the expected size (from a prior Stat);
// pass 0 if unknown.
func (d *Device) Pull(remotePath string, total int64, dst io.Writer, observer syncproto.ProgressFunc) error {
	s, conn, err := d.syncEndpoint()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := syncproto.Pull(conn, remotePath, total, dst, observer); err != nil {
		return err
	}
	return syncproto.WriteQuit(conn)
}

// Stat returns the remote path's mode, size and mtime.
func (d *Device) Stat(remotePath string) (syncproto.Stat, error) {
	s, conn, err := d.syncEndpoint()
	if err != nil {
		return syncproto.Stat{}, err
	}
	defer s.Close()
	st, err := syncproto.DoStat(conn, remotePath)
	if err != nil {
		return syncproto.Stat{}, err
	}
	if werr := syncproto.WriteQuit(conn); werr != nil {
		return st, werr
	}
	return st, nil
}

// List returns the entries of the remote directory at path.
func (d *Device) List(remotePath string) ([]syncproto.DirEntry, error) {
	s, conn, err := d.syncEndpoint()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	entries, err := syncproto.DoList(conn, remotePath)
	if err != nil {
		return nil, err
	}
	if werr := syncproto.WriteQuit(conn); werr != nil {
		return entries, werr
	}
	return entries, nil
}
