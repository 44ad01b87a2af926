package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. STEADYUDP_REQ_LOAD=high.
const EnvPrefix = "STEADYUDP"

// fileConfig mirrors the keys of the client configuration document.
type fileConfig struct {
	LoggingLevel  string `mapstructure:"logging_level"`
	LoggingFile   string `mapstructure:"logging_file"`
	FIFOFile      string `mapstructure:"fifo_communication_file"`
	StdinFallback bool   `mapstructure:"fifo_stdin_fallback"`
	HistoryFile   string `mapstructure:"history_file"`

	ServerIP   string   `mapstructure:"server_ip"`
	ServerPort int      `mapstructure:"server_port"`
	Servers    []Target `mapstructure:"servers"`

	ReqLoad   string             `mapstructure:"req_load"`
	Periods   map[string]float64 `mapstructure:"periods"`
	PerLow    *float64           `mapstructure:"load_request_time_period_seconds_low"`
	PerMid    *float64           `mapstructure:"load_request_time_period_seconds_mid"`
	PerHigh   *float64           `mapstructure:"load_request_time_period_seconds_high"`
	PerCustom *float64           `mapstructure:"load_request_time_period_seconds_custom"`

	ReqNumLow  uint32 `mapstructure:"req_num_low"`
	ReqNumHigh uint32 `mapstructure:"req_num_high"`
}

// messageConfig is the optional message document. Only the payload bounds
// are read from it.
type messageConfig struct {
	ReqNumLow  *uint32 `mapstructure:"req_num_low"`
	ReqNumHigh *uint32 `mapstructure:"req_num_high"`
}

// NewViper returns a viper instance for path with defaults and environment
// overrides registered. Files without a known extension are read as JSON.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	if !knownExt(path) {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging_level", DefaultLogLevel)
	v.SetDefault("logging_file", DefaultLogFile)
	v.SetDefault("fifo_communication_file", DefaultFIFOPath)
	v.SetDefault("fifo_stdin_fallback", false)
	v.SetDefault("history_file", "")
	v.SetDefault("server_ip", "none")
	v.SetDefault("server_port", 0)
	v.SetDefault("req_load", string(TierLow))
	v.SetDefault("req_num_low", DefaultReqLow)
	v.SetDefault("req_num_high", DefaultReqHigh)
	return v
}

func knownExt(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range viper.SupportedExts {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads the client configuration document and, when present, the
// message document. A missing message document is not an error.
func Load(clientPath, messagePath string) (*Config, error) {
	v := NewViper(clientPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", clientPath, err)
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}

	if messagePath != "" {
		if err := applyMessage(cfg, messagePath); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyMessage(cfg *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if !knownExt(path) {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var mc messageConfig
	if err := v.Unmarshal(&mc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if mc.ReqNumLow != nil {
		cfg.Low = *mc.ReqNumLow
	}
	if mc.ReqNumHigh != nil {
		cfg.High = *mc.ReqNumHigh
	}
	return nil
}

// Decode builds a Config from an already populated viper instance.
func Decode(v *viper.Viper) (*Config, error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg := &Config{
		Tier:          Tier(strings.ToLower(strings.TrimSpace(fc.ReqLoad))),
		Periods:       make(map[Tier]float64),
		Low:           fc.ReqNumLow,
		High:          fc.ReqNumHigh,
		FIFOPath:      fc.FIFOFile,
		StdinFallback: fc.StdinFallback,
		LogFile:       fc.LoggingFile,
		LogLevel:      fc.LoggingLevel,
		HistoryPath:   fc.HistoryFile,
	}

	for name, p := range fc.Periods {
		cfg.Periods[Tier(strings.ToLower(name))] = p
	}
	for t, p := range map[Tier]*float64{
		TierLow:    fc.PerLow,
		TierMid:    fc.PerMid,
		TierHigh:   fc.PerHigh,
		TierCustom: fc.PerCustom,
	} {
		if p != nil {
			cfg.Periods[t] = *p
		}
	}

	if ip := strings.TrimSpace(fc.ServerIP); ip != "" && !strings.EqualFold(ip, "none") {
		cfg.Targets = append(cfg.Targets, Target{Host: ip, Port: fc.ServerPort})
	}
	cfg.Targets = append(cfg.Targets, fc.Servers...)

	ApplyDefaults(cfg)
	return cfg, nil
}

// Save writes cfg as a YAML document that Load accepts.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// FromEnv builds a Config from defaults and environment overrides only, for
// runs without a client configuration document.
func FromEnv(messagePath string) (*Config, error) {
	cfg, err := Decode(NewViper(""))
	if err != nil {
		return nil, err
	}
	if messagePath != "" {
		if err := applyMessage(cfg, messagePath); err != nil {
			return nil, err
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
