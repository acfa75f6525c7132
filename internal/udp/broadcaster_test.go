package udp

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu        sync.Mutex
	writes    [][]byte
	writeErr  error
	closed    bool
	writeHits int
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeHits++
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	cp := append([]byte(nil), p...)
	c.writes = append(c.writes, cp)
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeHits
}

func (c *fakeConn) captured() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func TestNewBroadcaster_DialsResolvedAddr(t *testing.T) {
	var gotNetwork string
	var gotRaddr *net.UDPAddr
	fc := &fakeConn{}

	resolve := func(network, address string) (*net.UDPAddr, error) {
		return net.ResolveUDPAddr(network, address)
	}

	dial := func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		gotNetwork = network
		gotRaddr = raddr
		return fc, nil
	}

	b, err := newBroadcaster("127.0.0.1:4000", resolve, dial)
	if err != nil {
		t.Fatalf("newBroadcaster() error: %v", err)
	}
	defer b.Close()

	if gotNetwork != "udp" {
		t.Fatalf("network=%q want %q", gotNetwork, "udp")
	}
	if gotRaddr == nil || gotRaddr.Port != 4000 || !gotRaddr.IP.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Fatalf("raddr=%v want 127.0.0.1:4000", gotRaddr)
	}
}

func TestNewBroadcaster_ResolveFailure(t *testing.T) {
	resolveErr := errors.New("nope")
	resolve := func(network, address string) (*net.UDPAddr, error) {
		return nil, resolveErr
	}
	dial := func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return &fakeConn{}, nil
	}

	_, err := newBroadcaster("bad:addr", resolve, dial)
	if !errors.Is(err, resolveErr) {
		t.Fatalf("err=%v want %v", err, resolveErr)
	}
}

func TestBroadcaster_Send_EmptyNoWrite(t *testing.T) {
	fc := &fakeConn{}
	b := &Broadcaster{dest: "x", conn: fc}

	if err := b.Send(nil); err != nil {
		t.Fatalf("Send(nil) error: %v", err)
	}
	if err := b.Send([]byte{}); err != nil {
		t.Fatalf("Send(empty) error: %v", err)
	}
	if fc.hits() != 0 {
		t.Fatalf("expected no writes, got %d", fc.hits())
	}
}

func TestBroadcaster_Send_WritesPayload(t *testing.T) {
	fc := &fakeConn{}
	b := &Broadcaster{dest: "x", conn: fc}

	p := []byte{0x7E, 0x0A, 0x01, 0x7E}
	if err := b.Send(p); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	writes := fc.captured()
	if len(writes) != 1 {
		t.Fatalf("expected 1 captured write, got %d", len(writes))
	}
	if string(writes[0]) != string(p) {
		t.Fatalf("write=%v want %v", writes[0], p)
	}
}

func TestBroadcaster_Send_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	fc := &fakeConn{writeErr: wantErr}
	b := &Broadcaster{dest: "x", conn: fc}

	err := b.Send([]byte{0x01})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want %v", err, wantErr)
	}
}

func TestBroadcaster_Close_NilConnNoPanic(t *testing.T) {
	b := &Broadcaster{}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestRun_SendsEachPayloadAsDatagram(t *testing.T) {
	fc := &fakeConn{}
	b := &Broadcaster{dest: "x", conn: fc}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	Run(ctx, b, 1*time.Millisecond, nil, func() [][]byte {
		return [][]byte{[]byte("one"), []byte("two")}
	})

	writes := fc.captured()
	if len(writes) < 2 {
		t.Fatalf("expected at least one full tick, got %d writes", len(writes))
	}
	if string(writes[0]) != "one" || string(writes[1]) != "two" {
		t.Fatalf("first tick wrote %q, %q", writes[0], writes[1])
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	fc := &fakeConn{}
	b := &Broadcaster{dest: "x", conn: fc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	Run(ctx, b, time.Hour, nil, func() [][]byte {
		return [][]byte{[]byte("x")}
	})

	if fc.hits() != 0 {
		t.Fatalf("expected no writes after cancel, got %d", fc.hits())
	}
}

func TestRun_KeepsGoingAfterSendFailure(t *testing.T) {
	fc := &fakeConn{writeErr: errors.New("unreachable")}
	b := &Broadcaster{dest: "x", conn: fc}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	Run(ctx, b, 1*time.Millisecond, nil, func() [][]byte {
		return [][]byte{[]byte("x")}
	})

	if fc.hits() < 2 {
		t.Fatalf("expected retries across ticks, got %d attempts", fc.hits())
	}
}
