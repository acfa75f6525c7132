package gps

import (
	"context"
	"net"
	"strings"
	"time"
)

const gpsdDefaultAddr = "127.0.0.1:2947"

// dialGPSD connects to gpsd over TCP.
func dialGPSD(ctx context.Context, addr string) (net.Conn, error) {
	if strings.TrimSpace(addr) == "" {
		addr = gpsdDefaultAddr
	}
	d := &net.Dialer{Timeout: 2 * time.Second}
	return d.DialContext(ctx, "tcp", addr)
}

// gpsdWatch asks gpsd to forward the receiver's raw NMEA stream instead of
// its JSON reports, so the same decoder handles direct and gpsd-mediated
// receivers. gpsd still sends a few JSON banner lines first; without '$'
// framing the decoder discards them as noise.
func gpsdWatch(conn net.Conn) error {
	_, err := conn.Write([]byte("?WATCH={\"enable\":true,\"nmea\":true}\n"))
	return err
}

// dialTCP connects to a plain TCP byte stream, such as a ser2net export of a
// receiver's serial port.
func dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 2 * time.Second}
	return d.DialContext(ctx, "tcp", addr)
}
