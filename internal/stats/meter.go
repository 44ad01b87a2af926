package stats

import "time"

// DefaultWindow is the number of replies per throughput report.
const DefaultWindow = 50

// WindowReport is one throughput measurement.
type WindowReport struct {
	Index   int           `json:"index"`
	At      time.Time     `json:"at"`
	Replies int           `json:"replies"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Rate    float64       `json:"rate"`
}

// Meter reports an instantaneous rate every time the reply count reaches a
// multiple of the window size. Windows are independent measurements.
type Meter struct {
	window int
	count  uint64
	last   time.Time
	index  int
}

// NewMeter starts measuring at start.
func NewMeter(window int, start time.Time) *Meter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Meter{window: window, last: start}
}

// Observe counts one reply received at now. It returns a report exactly when
// the count crosses a multiple of the window.
func (m *Meter) Observe(now time.Time) (WindowReport, bool) {
	m.count++
	if m.count%uint64(m.window) != 0 {
		return WindowReport{}, false
	}

	elapsed := now.Sub(m.last)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(m.window) / elapsed.Seconds()
	}
	m.index++
	m.last = now
	return WindowReport{
		Index:   m.index,
		At:      now,
		Replies: m.window,
		Elapsed: elapsed,
		Rate:    rate,
	}, true
}

// Count returns the number of observed replies.
func (m *Meter) Count() uint64 { return m.count }
