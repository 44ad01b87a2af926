package stats

import (
	"testing"
	"time"
)

func TestMeter_FiresOncePerWindow(t *testing.T) {
	t.Parallel()

	start := time.Unix(1000, 0)
	m := NewMeter(DefaultWindow, start)
	now := start

	fired := 0
	// Bursty arrivals: 7 replies at the same instant, then a gap.
	for i := 1; i <= 237; i++ {
		if i%7 == 0 {
			now = now.Add(100 * time.Millisecond)
		}
		if _, ok := m.Observe(now); ok {
			fired++
			if i%DefaultWindow != 0 {
				t.Fatalf("fired at reply %d", i)
			}
		}
	}
	if fired != 237/DefaultWindow {
		t.Fatalf("fired=%d", fired)
	}
	if m.Count() != 237 {
		t.Fatalf("count=%d", m.Count())
	}
}

func TestMeter_RateIsPerWindow(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	m := NewMeter(50, start)

	var rep WindowReport
	for i := 1; i <= 50; i++ {
		var ok bool
		rep, ok = m.Observe(start.Add(time.Duration(i) * 100 * time.Millisecond))
		if ok != (i == 50) {
			t.Fatalf("reply %d ok=%v", i, ok)
		}
	}
	// 50 replies in 5 seconds.
	if rep.Rate != 10 || rep.Index != 1 || rep.Elapsed != 5*time.Second {
		t.Fatalf("rep=%+v", rep)
	}

	// Second window measured from the first report, not from start.
	secondStart := start.Add(5 * time.Second)
	for i := 1; i <= 50; i++ {
		rep, _ = m.Observe(secondStart.Add(time.Duration(i) * 20 * time.Millisecond))
	}
	if rep.Rate != 50 || rep.Index != 2 {
		t.Fatalf("second rep=%+v", rep)
	}
}

func TestMeter_ZeroElapsedHasZeroRate(t *testing.T) {
	t.Parallel()

	start := time.Unix(5, 0)
	m := NewMeter(2, start)
	m.Observe(start)
	rep, ok := m.Observe(start)
	if !ok || rep.Rate != 0 {
		t.Fatalf("rep=%+v ok=%v", rep, ok)
	}
}

func TestStats_PendingAndHistogram(t *testing.T) {
	t.Parallel()

	s := NewStats()
	s.AddSent()
	s.AddSent()
	s.AddReceived()
	if s.Pending() != 1 {
		t.Fatalf("pending=%d", s.Pending())
	}

	s.CycleWork.RecordDuration(2 * time.Millisecond)
	s.CycleWork.RecordDuration(time.Hour) // clamped to one minute
	if s.CycleWork.TotalCount() != 2 {
		t.Fatalf("count=%d", s.CycleWork.TotalCount())
	}
	if p50 := s.CycleWorkP50Ms(); p50 < 1.9 || p50 > 2.1 {
		t.Fatalf("p50=%v", p50)
	}
	if hi := s.CycleWorkMaxMs(); hi < 59_900 || hi > 60_100 {
		t.Fatalf("max=%v", hi)
	}
	if mean := s.CycleWorkMeanMs(); mean < 29_900 || mean > 30_100 {
		t.Fatalf("mean=%v", mean)
	}
}
