//go:build !linux

package pps

import "fmt"

func (m *Monitor) start() error {
	return fmt.Errorf("pps: gpio unsupported on this platform")
}
