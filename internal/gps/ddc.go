package gps

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danmclachlan/TinyGPS/internal/i2c"
)

// u-blox DDC (I2C) message stream registers.
const (
	ddcRegCountHigh = 0xFD
	ddcRegStream    = 0xFF
)

const ddcPollInterval = 25 * time.Millisecond

// ddcDev is the subset of the i2c device surface the DDC source needs; tests
// substitute a fake.
type ddcDev interface {
	ReadReg(reg byte, dst []byte) error
}

// ddcSource adapts a u-blox DDC port to io.ReadCloser. The receiver exposes
// a byte count at 0xFD/0xFE and the message stream at 0xFF; bytes read with
// nothing pending come back as 0xFF filler and are dropped.
type ddcSource struct {
	dev     ddcDev
	closeFn func() error
	sleep   func(time.Duration)
	closed  atomic.Bool
}

func openDDC(bus string, addr uint16) (*ddcSource, error) {
	b, err := i2c.Open(bus)
	if err != nil {
		return nil, err
	}
	return &ddcSource{
		dev:     b.Dev(addr),
		closeFn: b.Close,
		sleep:   time.Sleep,
	}, nil
}

func (d *ddcSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if d.closed.Load() {
			return 0, fmt.Errorf("ddc source closed")
		}

		var cnt [2]byte
		if err := d.dev.ReadReg(ddcRegCountHigh, cnt[:]); err != nil {
			return 0, err
		}
		avail := int(cnt[0])<<8 | int(cnt[1])
		if avail == 0 || avail == 0xFFFF {
			d.sleep(ddcPollInterval)
			continue
		}
		if avail > len(p) {
			avail = len(p)
		}

		if err := d.dev.ReadReg(ddcRegStream, p[:avail]); err != nil {
			return 0, err
		}

		// Compact away filler bytes.
		n := 0
		for _, b := range p[:avail] {
			if b == 0xFF {
				continue
			}
			p[n] = b
			n++
		}
		if n == 0 {
			d.sleep(ddcPollInterval)
			continue
		}
		return n, nil
	}
}

func (d *ddcSource) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if d.closeFn != nil {
		return d.closeFn()
	}
	return nil
}
