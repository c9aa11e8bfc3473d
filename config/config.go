// Package config holds the in-memory tunables for the radio mixing core.
//
// Config never touches the filesystem: state persistence is out of scope
// for the core. Callers that want persistence (a CLI wrapper, a desktop
// shell) load JSON bytes from wherever they like and pass them to Parse;
// the core only ever sees the resulting struct.
package config

import "encoding/json"

// Config holds the tunables referenced throughout the mixing core.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Fixed at 48000 by the
	// wire format, but kept configurable for test harnesses.
	SampleRate int `json:"sample_rate"`

	// FrameSize is the number of mono samples per 20 ms frame (960 at
	// 48 kHz).
	FrameSize int `json:"frame_size"`

	// StreamCacheTimeoutMs is how long (in milliseconds) a remote voice
	// source may sit idle before the maintenance sweep evicts it. The
	// design leaves the exact constant unspecified beyond "a few hundred
	// ms beyond one frame"; 300 ms is the chosen default (Open Question b).
	StreamCacheTimeoutMs int `json:"stream_cache_timeout_ms"`

	// MaintenanceIntervalMs is the cadence of the stream registry sweep.
	MaintenanceIntervalMs int `json:"maintenance_interval_ms"`

	// DefaultRadioGain is the linear gain multiplier assigned to a newly
	// configured radio slot.
	DefaultRadioGain float32 `json:"default_radio_gain"`

	// OpusBitrate is the initial Opus encoder target bitrate in bits/sec.
	OpusBitrate int `json:"opus_bitrate"`
}

// Default returns a Config populated with the core's built-in defaults.
func Default() Config {
	return Config{
		SampleRate:            48000,
		FrameSize:             960,
		StreamCacheTimeoutMs:  300,
		MaintenanceIntervalMs: 30000,
		DefaultRadioGain:      1.0,
		OpusBitrate:           32000,
	}
}

// Parse decodes JSON bytes into a Config seeded with Default() values, so
// a caller may supply a partial document and get sensible fallbacks for
// anything it omits.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
