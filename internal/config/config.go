package config

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"
)

// Tier is a named pacing preset.
type Tier string

const (
	TierLow    Tier = "low"
	TierMid    Tier = "mid"
	TierHigh   Tier = "high"
	TierCustom Tier = "custom"

	// FallbackTier paces the loop when the active tier is not one of the above.
	FallbackTier = TierLow
)

// Tiers lists the valid tiers in display order.
var Tiers = []Tier{TierLow, TierMid, TierHigh, TierCustom}

const (
	DefaultFIFOPath   = "/tmp/steadyudp.fifo"
	DefaultLogFile    = "/dev/stdout"
	DefaultLogLevel   = "INFO"
	DefaultLowPeriod  = 1.0
	DefaultMidPeriod  = 0.1
	DefaultHighPeriod = 0.01
	DefaultCustomPer  = 0.5
	DefaultReqLow     = 0
	DefaultReqHigh    = 10

	// StdinPath selects standard input as the command channel.
	StdinPath = "/dev/stdin"
)

// ParseTier maps a tier name to a Tier.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether t is one of the enumerated tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierLow, TierMid, TierHigh, TierCustom:
		return true
	}
	return false
}

// Target is a UDP server endpoint.
type Target struct {
	Host string `yaml:"ip" mapstructure:"ip"`
	Port int    `yaml:"port" mapstructure:"port"`
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ParseTarget parses "host:port".
func ParseTarget(s string) (Target, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return Target{}, err
	}
	return NewTarget(host, portStr)
}

// NewTarget validates a host and a decimal port.
func NewTarget(host, port string) (Target, error) {
	if host == "" {
		return Target{}, fmt.Errorf("empty host")
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return Target{}, fmt.Errorf("invalid port %q", port)
	}
	if p < 1 || p > 65535 {
		return Target{}, fmt.Errorf("port %d out of range", p)
	}
	return Target{Host: host, Port: p}, nil
}

// Config is the live generator configuration. It is populated once at
// startup and afterwards mutated only by the command channel.
type Config struct {
	Tier    Tier             `yaml:"req_load"`
	Periods map[Tier]float64 `yaml:"periods"`

	Low  uint32 `yaml:"req_num_low"`
	High uint32 `yaml:"req_num_high"`

	Targets []Target `yaml:"servers"`

	FIFOPath      string `yaml:"fifo_communication_file"`
	StdinFallback bool   `yaml:"fifo_stdin_fallback"`
	LogFile       string `yaml:"logging_file"`
	LogLevel      string `yaml:"logging_level"`
	HistoryPath   string `yaml:"history_file,omitempty"`
}

// Period returns the pacing period of the active tier. ok is false when the
// tier is invalid; the fallback tier's period is returned in that case.
func (c *Config) Period() (seconds float64, ok bool) {
	if !c.Tier.Valid() {
		return c.Periods[FallbackTier], false
	}
	return c.Periods[c.Tier], true
}

// SetBounds sets the request value range.
func (c *Config) SetBounds(low, high uint32) error {
	if low > high {
		return fmt.Errorf("low %d > high %d", low, high)
	}
	c.Low, c.High = low, high
	return nil
}

// MaxPeriod is the longest period, in seconds, a time.Duration can hold.
const MaxPeriod = float64(math.MaxInt64) / float64(time.Second)

// CheckPeriod rejects periods that are negative, not finite or too long to
// pace the loop with.
func CheckPeriod(seconds float64) error {
	switch {
	case math.IsNaN(seconds) || math.IsInf(seconds, 0):
		return fmt.Errorf("period %v is not finite", seconds)
	case seconds < 0:
		return fmt.Errorf("negative period %v", seconds)
	case seconds >= MaxPeriod:
		return fmt.Errorf("period %v exceeds %.0f seconds", seconds, MaxPeriod)
	}
	return nil
}

// SetPeriod sets the period of one tier.
func (c *Config) SetPeriod(t Tier, seconds float64) error {
	if !t.Valid() {
		return fmt.Errorf("unknown tier %q", t)
	}
	if err := CheckPeriod(seconds); err != nil {
		return err
	}
	if c.Periods == nil {
		c.Periods = make(map[Tier]float64)
	}
	c.Periods[t] = seconds
	return nil
}

// AddTarget appends t to the target list.
func (c *Config) AddTarget(t Target) {
	c.Targets = append(c.Targets, t)
}

// RemoveTarget removes the first target equal to t.
func (c *Config) RemoveTarget(t Target) bool {
	for i, cur := range c.Targets {
		if cur == t {
			c.Targets = append(c.Targets[:i:i], c.Targets[i+1:]...)
			return true
		}
	}
	return false
}

// SetTargets replaces the target list.
func (c *Config) SetTargets(ts ...Target) {
	c.Targets = append([]Target(nil), ts...)
}

// UsesStdin reports whether the command channel reads standard input.
func (c *Config) UsesStdin() bool {
	return c.FIFOPath == "" || c.FIFOPath == StdinPath
}

// Validate performs minimal validation of the loaded configuration. The tier
// is left alone: an invalid tier is reported by the loop on every cycle.
func Validate(cfg *Config) error {
	if cfg.Low > cfg.High {
		return fmt.Errorf("req_num_low (%d) must not exceed req_num_high (%d)", cfg.Low, cfg.High)
	}
	for t, p := range cfg.Periods {
		if err := CheckPeriod(p); err != nil {
			return fmt.Errorf("load_request_time_period_seconds_%s: %w", t, err)
		}
	}
	for _, t := range cfg.Targets {
		if t.Host == "" {
			return fmt.Errorf("server with empty ip")
		}
		if t.Port < 1 || t.Port > 65535 {
			return fmt.Errorf("server %s: port out of range", t)
		}
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Periods == nil {
		cfg.Periods = make(map[Tier]float64)
	}
	defaults := map[Tier]float64{
		TierLow:    DefaultLowPeriod,
		TierMid:    DefaultMidPeriod,
		TierHigh:   DefaultHighPeriod,
		TierCustom: DefaultCustomPer,
	}
	for t, p := range defaults {
		if _, ok := cfg.Periods[t]; !ok {
			cfg.Periods[t] = p
		}
	}
	if cfg.Tier == "" {
		cfg.Tier = TierLow
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
