package stats

import (
	"sync/atomic"
)

// Stats holds the generator counters.
type Stats struct {
	Sent       uint64
	Received   uint64
	SendBlocks uint64
	SendErrors uint64
	RecvErrors uint64
	Malformed  uint64
	Cycles     uint64

	// Time spent in a cycle before the pacing sleep (microseconds)
	CycleWork *SafeHistogram
}

func NewStats() *Stats {
	return &Stats{
		CycleWork: NewSafeHistogram(),
	}
}

func (s *Stats) AddSent()      { atomic.AddUint64(&s.Sent, 1) }
func (s *Stats) AddReceived()  { atomic.AddUint64(&s.Received, 1) }
func (s *Stats) AddSendBlock() { atomic.AddUint64(&s.SendBlocks, 1) }
func (s *Stats) AddSendError() { atomic.AddUint64(&s.SendErrors, 1) }
func (s *Stats) AddRecvError() { atomic.AddUint64(&s.RecvErrors, 1) }
func (s *Stats) AddMalformed() { atomic.AddUint64(&s.Malformed, 1) }
func (s *Stats) AddCycle()     { atomic.AddUint64(&s.Cycles, 1) }

// Pending is the number of requests without a counted reply. Replies are not
// correlated, so this is a difference of totals and may be negative.
func (s *Stats) Pending() int64 {
	return int64(atomic.LoadUint64(&s.Sent)) - int64(atomic.LoadUint64(&s.Received))
}

// CycleWorkP50Ms returns the median cycle work in milliseconds
func (s *Stats) CycleWorkP50Ms() float64 {
	return float64(s.CycleWork.ValueAtQuantile(50)) / 1000.0
}

// CycleWorkP99Ms returns the 99th percentile cycle work in milliseconds
func (s *Stats) CycleWorkP99Ms() float64 {
	return float64(s.CycleWork.ValueAtQuantile(99)) / 1000.0
}

func (s *Stats) CycleWorkMeanMs() float64 {
	return s.CycleWork.Mean() / 1000.0
}

func (s *Stats) CycleWorkMaxMs() float64 {
	return float64(s.CycleWork.Max()) / 1000.0
}
