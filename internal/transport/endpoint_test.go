package transport

import (
	"errors"
	"net"
	"testing"

	"github.com/rjboer/goadb/internal/adberr"
)

func TestParseAddr(t *testing.T) {
	cases := []struct {
		in   string
		want Addr
	}{
		{"example.com", Addr{Host: "example.com", Port: 5037}},
		{"example.com:1234", Addr{Host: "example.com", Port: 1234}},
		{"example.com:notaport", Addr{Host: "example.com:notaport", Port: 5037}},
	}
	for _, tc := range cases {
		if got := ParseAddr(tc.in, 5037); got != tc.want {
			t.Errorf("ParseAddr(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

type pipeDialer struct {
	server net.Conn
}

func (d *pipeDialer) Dial(network, addr string) (net.Conn, error) {
	client, server := net.Pipe()
	d.server = server
	return client, nil
}

func TestEndpointSendReceive(t *testing.T) {
	dialer := &pipeDialer{}
	ep := New()
	ep.SetDialer(dialer)
	if err := ep.Connect(Addr{Host: "127.0.0.1", Port: 5037}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer ep.Dispose()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 5)
		if _, err := dialer.server.Read(buf); err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		if string(buf) != "hello" {
			t.Errorf("server got %q", buf)
		}
		dialer.server.Write([]byte("world"))
	}()

	n, err := ep.Send([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Send: n=%d err=%v", n, err)
	}

	buf := make([]byte, 5)
	n, err = ep.ReadFull(buf)
	if err != nil || n != 5 || string(buf) != "world" {
		t.Fatalf("ReadFull: n=%d err=%v buf=%q", n, err, buf)
	}
	<-done
}

func TestEndpointReceiveOrderlyClose(t *testing.T) {
	dialer := &pipeDialer{}
	ep := New()
	ep.SetDialer(dialer)
	if err := ep.Connect(Addr{Host: "h", Port: 1}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	dialer.server.Close()

	buf := make([]byte, 4)
	n, err := ep.ReadFull(buf)
	if n != 0 || err != nil {
		t.Fatalf("expected short read with no error on orderly close, got n=%d err=%v", n, err)
	}
}

type timeoutConn struct{ net.Conn }

func (timeoutConn) Read([]byte) (int, error) { return 0, timeoutErr{} }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestEndpointReceiveTimeout(t *testing.T) {
	client, server := net.Pipe()
	server.Close()
	ep := New()
	ep.conn = timeoutConn{client}
	_, err := ep.Receive(make([]byte, 1))
	if !errors.Is(err, adberr.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
