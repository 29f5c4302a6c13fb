package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// scanConfig describes a scan run: a set of unicast targets, an optional
// broadcast sweep, and timing.
type scanConfig struct {
	Targets   []string
	Broadcast string
	Timeout   time.Duration
	Listen    time.Duration
}

// rawScanConfig mirrors the TOML file. Durations are whole seconds.
type rawScanConfig struct {
	Targets        []string `toml:"targets"`
	Broadcast      string   `toml:"broadcast"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	ListenSeconds  int      `toml:"listen_seconds"`
}

// loadScanConfig reads a scan config file and applies defaults for anything
// the file leaves out.
func loadScanConfig(path string) (*scanConfig, error) {
	var raw rawScanConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("read scan config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("scan config %s: unknown key %q", path, undecoded[0].String())
	}

	config := &scanConfig{
		Targets:   raw.Targets,
		Broadcast: raw.Broadcast,
		Timeout:   5 * time.Second,
		Listen:    5 * time.Second,
	}
	if meta.IsDefined("timeout_seconds") {
		if raw.TimeoutSeconds <= 0 {
			return nil, fmt.Errorf("scan config %s: timeout_seconds must be positive", path)
		}
		config.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if meta.IsDefined("listen_seconds") {
		if raw.ListenSeconds <= 0 {
			return nil, fmt.Errorf("scan config %s: listen_seconds must be positive", path)
		}
		config.Listen = time.Duration(raw.ListenSeconds) * time.Second
	}

	if len(config.Targets) == 0 && config.Broadcast == "" {
		return nil, fmt.Errorf("scan config %s: no targets and no broadcast address", path)
	}
	return config, nil
}
