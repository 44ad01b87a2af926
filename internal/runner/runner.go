package runner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"steadyudp/internal/config"
	"steadyudp/internal/dgram"
	"steadyudp/internal/logging"
	"steadyudp/internal/selector"
	"steadyudp/internal/stats"
	"steadyudp/internal/wire"
)

// MaxReports bounds the window reports kept in memory.
const MaxReports = 4096

type Runner struct {
	Cfg     *config.Config
	Stats   *stats.Stats
	Reports []stats.WindowReport
	Start   time.Time
	Logger  *log.Logger

	// Event Channel
	Updates StatsUpdateChan

	sock     Socket
	commands Poller
	targets  *selector.RoundRobin
	meter    *stats.Meter
	rng      *rand.Rand
	resolved map[config.Target]*net.UDPAddr
	recvBuf  []byte
	lastRate float64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(cfg *config.Config, sock Socket, commands Poller, updates StatsUpdateChan, logger *log.Logger) *Runner {
	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	r := &Runner{
		Cfg:      cfg,
		Stats:    stats.NewStats(),
		Logger:   logger,
		Updates:  updates,
		sock:     sock,
		commands: commands,
		targets:  selector.NewRoundRobin(),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		resolved: make(map[config.Target]*net.UDPAddr),
		recvBuf:  make([]byte, 1500),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	r.Start = r.now()
	r.meter = stats.NewMeter(stats.DefaultWindow, r.Start)
	return r
}

// Run executes cycles until ctx is cancelled. Each cycle is followed by a
// sleep of max(0, next wake - now); late cycles are not compensated.
func (r *Runner) Run(ctx context.Context) {
	r.Start = r.now()
	r.meter = stats.NewMeter(stats.DefaultWindow, r.Start)

	for ctx.Err() == nil {
		next := r.Cycle()
		if err := r.sleep(ctx, SleepFor(next, r.now())); err != nil {
			return
		}
	}
}

// SleepFor returns the pacing sleep for a cycle that should end at next.
func SleepFor(next, now time.Time) time.Duration {
	if d := next.Sub(now); d > 0 {
		return d
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Cycle runs one cycle without the pacing sleep and returns the time at
// which the next cycle should start.
func (r *Runner) Cycle() time.Time {
	cycleStart := r.now()

	period, ok := r.Cfg.Period()
	if !ok {
		logging.Critical(r.Logger, "wrong value stored in req_load",
			"tier", r.Cfg.Tier, "fallback", config.FallbackTier)
	}
	next := cycleStart.Add(secondsToDuration(period))

	if r.commands != nil {
		r.commands.Poll()
	}

	if idx, ok := r.targets.Next(len(r.Cfg.Targets)); ok {
		r.emit(r.Cfg.Targets[idx])
	} else {
		r.Logger.Debug("no servers configured, skipping send")
	}

	r.drain()

	r.Stats.AddCycle()
	r.Stats.CycleWork.RecordDuration(r.now().Sub(cycleStart))

	r.Logger.Debug("stats",
		"sent", r.Stats.Sent,
		"received", r.Stats.Received,
		"pending", r.Stats.Pending(),
		"servers", len(r.Cfg.Targets),
	)
	r.sendUpdate()
	return next
}

// draw returns a uniform value in [Low, High].
func (r *Runner) draw() uint32 {
	low, high := r.Cfg.Low, r.Cfg.High
	if high <= low {
		return low
	}
	return low + uint32(r.rng.Uint64N(uint64(high-low)+1))
}

func (r *Runner) resolve(t config.Target) (*net.UDPAddr, error) {
	if addr, ok := r.resolved[t]; ok {
		return addr, nil
	}
	addr, err := net.ResolveUDPAddr("udp", t.String())
	if err != nil {
		return nil, err
	}
	r.resolved[t] = addr
	return addr, nil
}

func (r *Runner) emit(t config.Target) {
	addr, err := r.resolve(t)
	if err != nil {
		r.Stats.AddSendError()
		r.Logger.Error("cannot resolve server", "server", t, "err", err)
		return
	}

	v := r.draw()
	res := r.sock.SendTo(wire.EncodeRequest(v), addr)
	switch res.Status {
	case dgram.OK:
		r.Stats.AddSent()
		r.Logger.Debug("request sent", "server", t, "value", v)
	case dgram.WouldBlock:
		r.Stats.AddSendBlock()
		r.Logger.Warn("send buffer full, request dropped", "server", t)
	default:
		r.Stats.AddSendError()
		r.Logger.Error("send failed", "server", t, "err", res.Err)
	}
}

// drain receives until the socket would block. A receive error ends the
// drain for this cycle.
func (r *Runner) drain() {
	for {
		res := r.sock.Recv(r.recvBuf)
		switch res.Status {
		case dgram.WouldBlock:
			return
		case dgram.Failed:
			r.Stats.AddRecvError()
			r.Logger.Warn("receive failed", "err", res.Err)
			return
		}

		v, err := wire.DecodeReply(r.recvBuf[:res.N])
		if err != nil {
			r.Stats.AddMalformed()
			r.Logger.Debug("malformed reply", "from", res.From, "err", err)
		}
		r.Stats.AddReceived()
		r.Logger.Debug("reply", "from", res.From, "value", v)

		if rep, ok := r.meter.Observe(r.now()); ok {
			r.record(rep)
		}
	}
}

func (r *Runner) record(rep stats.WindowReport) {
	r.lastRate = rep.Rate
	r.Reports = append(r.Reports, rep)
	if len(r.Reports) > MaxReports {
		r.Reports = r.Reports[len(r.Reports)-MaxReports:]
	}
	r.Logger.Info("server request throughput",
		"rate", fmt.Sprintf("%.9f / second", rep.Rate),
		"window", rep.Index,
	)
}

func (r *Runner) sendUpdate() {
	period, _ := r.Cfg.Period()
	targets := make([]string, len(r.Cfg.Targets))
	for i, t := range r.Cfg.Targets {
		targets[i] = t.String()
	}

	s := StatsSnapshot{
		At:         r.now(),
		Sent:       r.Stats.Sent,
		Received:   r.Stats.Received,
		Pending:    r.Stats.Pending(),
		SendBlocks: r.Stats.SendBlocks,
		SendErrors: r.Stats.SendErrors,
		RecvErrors: r.Stats.RecvErrors,
		Cycles:     r.Stats.Cycles,
		Windows:    r.Windows(),
		LastRate:   r.lastRate,
		Tier:       r.Cfg.Tier,
		Period:     secondsToDuration(period),
		Low:        r.Cfg.Low,
		High:       r.Cfg.High,
		Targets:    targets,
		P50WorkMs:  r.Stats.CycleWorkP50Ms(),
		P99WorkMs:  r.Stats.CycleWorkP99Ms(),
		MaxWorkMs:  r.Stats.CycleWorkMaxMs(),
	}

	// Non-blocking send
	select {
	case r.Updates <- s:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Windows returns the number of throughput reports so far.
func (r *Runner) Windows() int {
	return int(r.meter.Count() / stats.DefaultWindow)
}
