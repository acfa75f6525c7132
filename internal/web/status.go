package web

import (
	"net"
	"sort"
	"sync/atomic"
	"time"

	"github.com/danmclachlan/TinyGPS/internal/gps"
	"github.com/danmclachlan/TinyGPS/internal/pps"
)

type Status struct {
	startUnixNano int64
	datagramsSent uint64
	lastSendNano  int64
	source        atomic.Value // string
	udpDest       atomic.Value // string
	gps           atomic.Value // gps.Snapshot
	pps           atomic.Value // *pps.Snapshot, nil until SetPPS
}

func NewStatus() *Status {
	s := &Status{}
	now := time.Now().UTC()
	atomic.StoreInt64(&s.startUnixNano, now.UnixNano())
	atomic.StoreInt64(&s.lastSendNano, 0)
	s.source.Store("")
	s.udpDest.Store("")
	s.gps.Store(gps.Snapshot{})
	s.pps.Store((*pps.Snapshot)(nil))
	return s
}

func (s *Status) SetStatic(source string, udpDest string) {
	if source != "" {
		s.source.Store(source)
	}
	if udpDest != "" {
		s.udpDest.Store(udpDest)
	}
}

func (s *Status) SetGPS(snap gps.Snapshot) {
	s.gps.Store(snap)
}

func (s *Status) SetPPS(snap pps.Snapshot) {
	s.pps.Store(&snap)
}

func (s *Status) MarkSent(nowUTC time.Time, datagrams int) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	atomic.StoreInt64(&s.lastSendNano, nowUTC.UnixNano())
	if datagrams > 0 {
		atomic.AddUint64(&s.datagramsSent, uint64(datagrams))
	}
}

type StatusSnapshot struct {
	Service            string        `json:"service"`
	NowUTC             string        `json:"now_utc"`
	UptimeSec          int64         `json:"uptime_sec"`
	Source             string        `json:"source"`
	UDPDest            string        `json:"udp_dest,omitempty"`
	DatagramsSentTotal uint64        `json:"datagrams_sent_total"`
	LastSendUTC        string        `json:"last_send_utc,omitempty"`
	LocalAddrs         []string      `json:"local_addrs,omitempty"`
	GPS                gps.Snapshot  `json:"gps"`
	PPS                *pps.Snapshot `json:"pps,omitempty"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	uptime := nowUTC.Sub(start)
	lastSend := atomic.LoadInt64(&s.lastSendNano)

	snap := StatusSnapshot{
		Service:            "tinygpsd",
		NowUTC:             nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:          int64(uptime.Seconds()),
		Source:             s.source.Load().(string),
		UDPDest:            s.udpDest.Load().(string),
		DatagramsSentTotal: atomic.LoadUint64(&s.datagramsSent),
		LocalAddrs:         localInterfaceAddrs(),
		GPS:                s.gps.Load().(gps.Snapshot),
		PPS:                s.pps.Load().(*pps.Snapshot),
	}
	if lastSend != 0 {
		snap.LastSendUTC = time.Unix(0, lastSend).UTC().Format(time.RFC3339Nano)
	}
	return snap
}

// localInterfaceAddrs lists the non-loopback IPv4 addresses of interfaces
// that are up, so the status page can say where the UDP feed is reachable
// from.
func localInterfaceAddrs() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	out := make([]string, 0, 8)
	for _, iface := range ifaces {
		if (iface.Flags & net.FlagUp) == 0 {
			continue
		}
		if (iface.Flags & net.FlagLoopback) != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			var ipnet *net.IPNet
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
				ipnet = v
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
				continue
			}
			if ipnet != nil {
				out = append(out, iface.Name+": "+ipnet.String())
			} else {
				out = append(out, iface.Name+": "+ip4.String())
			}
		}
	}
	sort.Strings(out)
	return out
}
