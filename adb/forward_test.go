package adb

import (
	"testing"
	"time"
)

func TestParseForwardListFixture(t *testing.T) {
	body := "emulator-5554 tcp:5000 tcp:6000\n" +
		"emulator-5554 tcp:5001 localabstract:foo\n" +
		"0123456789ABCDEF tcp:5002 tcp:6002\n"

	got := parseForwardList(body)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(got), got)
	}
	if got[0].Serial != "emulator-5554" || got[0].Local != ForwardSpec("tcp:5000") || got[0].Remote != ForwardSpec("tcp:6000") {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Remote != ForwardSpec("localabstract:foo") {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}

func TestTCPForward(t *testing.T) {
	if TCPForward(5555) != ForwardSpec("tcp:5555") {
		t.Fatalf("got %q", TCPForward(5555))
	}
}

// newFakeDevice builds a Device whose host-serial requests (Forward,
// ForwardRemove, ForwardList) each open a fresh fake connection through
// dialer; the initial d.socket itself is never exercised by these tests,
// since all three methods dial anew rather than reusing it.
func newFakeDevice(t *testing.T, serial string) (*Device, *pipeDialer) {
	t.Helper()
	initDialer := &pipeDialer{}
	s0, err := Dial("fake:1", WithDialer(initDialer))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	reqDialer := &pipeDialer{ready: make(chan struct{})}
	d := &Device{addr: "fake:1", serial: serial, socket: s0, opts: []Option{WithDialer(reqDialer)}}
	return d, reqDialer
}

func waitDialed(t *testing.T, dialer *pipeDialer) {
	t.Helper()
	select {
	case <-dialer.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial")
	}
}

func TestDeviceForward(t *testing.T) {
	d, dialer := newFakeDevice(t, "emulator-5554")

	done := make(chan error, 1)
	go func() { done <- d.Forward(TCPForward(5000), TCPForward(6000)) }()

	waitDialed(t, dialer)
	srv := dialer.server
	cmd := serverReadRequest(t, srv)
	if cmd != "host-serial:emulator-5554:forward:tcp:5000;tcp:6000" {
		t.Fatalf("got command %q", cmd)
	}
	serverWriteOkay(t, srv)

	if err := <-done; err != nil {
		t.Fatalf("Forward: %v", err)
	}
}

func TestDeviceForwardRemove(t *testing.T) {
	d, dialer := newFakeDevice(t, "emulator-5554")

	done := make(chan error, 1)
	go func() { done <- d.ForwardRemove(TCPForward(5000)) }()

	waitDialed(t, dialer)
	srv := dialer.server
	cmd := serverReadRequest(t, srv)
	if cmd != "host-serial:emulator-5554:killforward:tcp:5000" {
		t.Fatalf("got command %q", cmd)
	}
	serverWriteOkay(t, srv)

	if err := <-done; err != nil {
		t.Fatalf("ForwardRemove: %v", err)
	}
}

func TestDeviceForwardListFiltersBySerial(t *testing.T) {
	d, dialer := newFakeDevice(t, "emulator-5554")

	type result struct {
		pairs []ForwardPair
		err   error
	}
	done := make(chan result, 1)
	go func() {
		pairs, err := d.ForwardList()
		done <- result{pairs, err}
	}()

	waitDialed(t, dialer)
	srv := dialer.server
	cmd := serverReadRequest(t, srv)
	if cmd != "host-serial:emulator-5554:list-forward" {
		t.Fatalf("got command %q", cmd)
	}
	serverWriteOkay(t, srv)
	body := "emulator-5554 tcp:5000 tcp:6000\n0123456789ABCDEF tcp:5002 tcp:6002\n"
	srv.Write([]byte(formatHexLen(len(body)) + body))

	res := <-done
	if res.err != nil {
		t.Fatalf("ForwardList: %v", res.err)
	}
	if len(res.pairs) != 1 || res.pairs[0].Serial != "emulator-5554" {
		t.Fatalf("unexpected pairs: %+v", res.pairs)
	}
}

func TestConnectTCPRejectsUnableToConnect(t *testing.T) {
	dialer := &pipeDialer{ready: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- ConnectTCP("fake:1", "192.168.1.5:5555", WithDialer(dialer)) }()

	waitDialed(t, dialer)
	srv := dialer.server
	cmd := serverReadRequest(t, srv)
	if cmd != "host:connect:192.168.1.5:5555" {
		t.Fatalf("got command %q", cmd)
	}
	frame := formatHexLen(len("unable to connect to 192.168.1.5:5555")) + "unable to connect to 192.168.1.5:5555"
	srv.Write([]byte("OKAY" + frame))

	if err := <-done; err == nil {
		t.Fatal("expected error for unable-to-connect response")
	}
}

func TestDisconnectTCPSucceeds(t *testing.T) {
	dialer := &pipeDialer{ready: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- DisconnectTCP("fake:1", "192.168.1.5:5555", WithDialer(dialer)) }()

	waitDialed(t, dialer)
	srv := dialer.server
	cmd := serverReadRequest(t, srv)
	if cmd != "host:disconnect:192.168.1.5:5555" {
		t.Fatalf("got command %q", cmd)
	}
	serverWriteOkay(t, srv)
	msg := "disconnected 192.168.1.5:5555"
	srv.Write([]byte(formatHexLen(len(msg)) + msg))

	if err := <-done; err != nil {
		t.Fatalf("DisconnectTCP: %v", err)
	}
}

func TestDeviceForwardRejected(t *testing.T) {
	d, dialer := newFakeDevice(t, "emulator-5554")

	done := make(chan error, 1)
	go func() { done <- d.Forward(TCPForward(5000), TCPForward(6000)) }()

	waitDialed(t, dialer)
	srv := dialer.server
	serverReadRequest(t, srv)
	serverWriteFail(t, srv, "cannot bind to socket")

	if err := <-done; err == nil {
		t.Fatal("expected error")
	}
}
