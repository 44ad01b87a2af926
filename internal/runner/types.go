package runner

import (
	"net"
	"time"

	"steadyudp/internal/config"
	"steadyudp/internal/dgram"
)

// Socket is the datagram transport driven by the loop. Both calls must
// return immediately.
type Socket interface {
	SendTo(b []byte, addr *net.UDPAddr) dgram.SendResult
	Recv(buf []byte) dgram.RecvResult
}

// Poller applies pending commands to the configuration.
type Poller interface {
	Poll() int
}

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	At       time.Time
	Sent     uint64
	Received uint64
	Pending  int64

	SendBlocks uint64
	SendErrors uint64
	RecvErrors uint64
	Cycles     uint64

	Windows  int
	LastRate float64

	// Live configuration as seen by this cycle
	Tier    config.Tier
	Period  time.Duration
	Low     uint32
	High    uint32
	Targets []string

	P50WorkMs float64
	P99WorkMs float64
	MaxWorkMs float64
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot
