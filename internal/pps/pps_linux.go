//go:build linux

package pps

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

func (m *Monitor) start() error {
	line, err := gpiocdev.RequestLine(m.cfg.Chip, m.cfg.Line,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			m.handleEdge(time.Now(), evt.Timestamp)
		}),
		gpiocdev.WithConsumer("tinygpsd-pps"))
	if err != nil {
		return fmt.Errorf("request gpio %s line %d: %w", m.cfg.Chip, m.cfg.Line, err)
	}

	m.mu.Lock()
	m.closer = line
	m.mu.Unlock()
	return nil
}
