package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_LegacyJSONConf(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	client := writeFile(t, tmp, "client.conf", `{
		"logging_level": "DEBUG",
		"logging_file": "/dev/stdout",
		"fifo_communication_file": "/tmp/x.fifo",
		"server_ip": "127.0.0.1",
		"server_port": 9999,
		"req_load": "mid",
		"load_request_time_period_seconds_low": 2,
		"load_request_time_period_seconds_mid": 0.25,
		"load_request_time_period_seconds_high": 0.001,
		"load_request_time_period_seconds_custom": 3,
		"req_num_low": 5,
		"req_num_high": 7
	}`)

	cfg, err := Load(client, filepath.Join(tmp, "message.conf"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tier != TierMid {
		t.Fatalf("tier=%q", cfg.Tier)
	}
	if p, ok := cfg.Period(); !ok || p != 0.25 {
		t.Fatalf("period=%v ok=%v", p, ok)
	}
	if cfg.Periods[TierHigh] != 0.001 {
		t.Fatalf("high period=%v", cfg.Periods[TierHigh])
	}
	if cfg.Low != 5 || cfg.High != 7 {
		t.Fatalf("bounds=%d..%d", cfg.Low, cfg.High)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].String() != "127.0.0.1:9999" {
		t.Fatalf("targets=%v", cfg.Targets)
	}
	if cfg.FIFOPath != "/tmp/x.fifo" || cfg.LogLevel != "DEBUG" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_ServerNoneMeansEmptyList(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	client := writeFile(t, tmp, "client.conf", `{"server_ip": "None", "server_port": 1}`)

	cfg, err := Load(client, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Targets) != 0 {
		t.Fatalf("targets=%v", cfg.Targets)
	}
	if cfg.Periods[TierLow] != DefaultLowPeriod {
		t.Fatalf("default low period not applied: %v", cfg.Periods)
	}
	if cfg.FIFOPath != DefaultFIFOPath {
		t.Fatalf("fifo=%q", cfg.FIFOPath)
	}
}

func TestLoad_MessageOverridesBounds(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	client := writeFile(t, tmp, "client.conf", `{"req_num_low": 1, "req_num_high": 2}`)
	msg := writeFile(t, tmp, "message.conf", `{"req_num_high": 100}`)

	cfg, err := Load(client, msg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Low != 1 || cfg.High != 100 {
		t.Fatalf("bounds=%d..%d", cfg.Low, cfg.High)
	}
}

func TestLoad_RejectsInvertedBounds(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	client := writeFile(t, tmp, "client.conf", `{"req_num_low": 9, "req_num_high": 2}`)
	if _, err := Load(client, ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_KeepsInvalidTier(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	client := writeFile(t, tmp, "client.conf", `{"req_load": "turbo"}`)
	cfg, err := Load(client, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := cfg.Period()
	if ok {
		t.Fatalf("expected invalid tier")
	}
	if p != cfg.Periods[FallbackTier] {
		t.Fatalf("fallback period=%v", p)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	in := &Config{Tier: TierHigh, Low: 3, High: 4, FIFOPath: StdinPath}
	ApplyDefaults(in)
	in.Periods[TierCustom] = 0.02
	in.AddTarget(Target{Host: "10.0.0.1", Port: 7000})
	in.AddTarget(Target{Host: "10.0.0.2", Port: 7001})

	path := filepath.Join(tmp, "snap", "live.yaml")
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Tier != TierHigh || out.Low != 3 || out.High != 4 {
		t.Fatalf("out=%+v", out)
	}
	if out.Periods[TierCustom] != 0.02 {
		t.Fatalf("custom period=%v", out.Periods[TierCustom])
	}
	if len(out.Targets) != 2 || out.Targets[1].Port != 7001 {
		t.Fatalf("targets=%v", out.Targets)
	}
	if !out.UsesStdin() {
		t.Fatalf("fifo=%q", out.FIFOPath)
	}
}

func TestRemoveTarget_FirstMatchOnly(t *testing.T) {
	t.Parallel()

	a := Target{Host: "a", Port: 1}
	b := Target{Host: "b", Port: 2}
	cfg := &Config{}
	cfg.SetTargets(a, b, a)

	if !cfg.RemoveTarget(a) {
		t.Fatal("expected removal")
	}
	if len(cfg.Targets) != 2 || cfg.Targets[0] != b || cfg.Targets[1] != a {
		t.Fatalf("targets=%v", cfg.Targets)
	}
	if cfg.RemoveTarget(Target{Host: "c", Port: 3}) {
		t.Fatal("unexpected removal")
	}
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tg, err := ParseTarget("127.0.0.1:9999")
	if err != nil || tg.Port != 9999 {
		t.Fatalf("tg=%v err=%v", tg, err)
	}
	if _, err := ParseTarget("127.0.0.1:0"); err == nil {
		t.Fatal("expected port error")
	}
	if _, err := ParseTarget("nohost"); err == nil {
		t.Fatal("expected split error")
	}
}

func TestFromEnv_DefaultsWithoutDocument(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	msg := writeFile(t, tmp, "message.conf", `{"req_num_low": 3, "req_num_high": 4}`)

	cfg, err := FromEnv(msg)
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.FIFOPath != DefaultFIFOPath || len(cfg.Targets) != 0 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Low != 3 || cfg.High != 4 {
		t.Fatalf("bounds=[%d,%d]", cfg.Low, cfg.High)
	}
}

func TestSetPeriod_RejectsUnpaceableValues(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	ApplyDefaults(cfg)
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300, MaxPeriod, -0.5} {
		if err := cfg.SetPeriod(TierMid, v); err == nil {
			t.Fatalf("SetPeriod(%v) accepted", v)
		}
	}
	if cfg.Periods[TierMid] != DefaultMidPeriod {
		t.Fatalf("period changed to %v", cfg.Periods[TierMid])
	}
	if err := cfg.SetPeriod(TierMid, 0); err != nil {
		t.Fatalf("SetPeriod(0): %v", err)
	}
}

func TestValidate_RejectsNonFinitePeriod(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Periods[TierHigh] = math.NaN()
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for NaN period")
	}
}

func TestLoad_RejectsHugePeriod(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	client := writeFile(t, tmp, "client.conf", `{"load_request_time_period_seconds_low": 1e300}`)
	if _, err := Load(client, ""); err == nil {
		t.Fatal("expected error")
	}
}
