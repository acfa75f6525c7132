// Package gps feeds receiver bytes into the NMEA decoder and republishes
// every committed fix.
//
// Sources: a local serial port, a gpsd socket switched to raw NMEA
// forwarding, a plain TCP stream, a u-blox DDC (I2C) port, a synthetic
// track generator, and timed replay of a recorded sentence log. All of them
// reduce to an io.ReadCloser pumped through the same decoder, and all of
// them reconnect with backoff when the stream dies.
package gps
