package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mirage-vr/client/internal/xr"
)

// Duration decodes yaml values like "35ms" or plain nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("cannot decode %q as duration", value.Value)
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Headset   HeadsetConfig   `yaml:"headset"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type EngineConfig struct {
	URL            string   `yaml:"url"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

type HeadsetConfig struct {
	// Prediction offsets added to the runtime clock when locating head and
	// hand poses ahead of display.
	HeadPredictionOffset    Duration `yaml:"head_prediction_offset"`
	TrackerPredictionOffset Duration `yaml:"tracker_prediction_offset"`

	// DecoderTimeoutMultiplier bounds the decoded-frame poll to this
	// fraction of the frame interval.
	DecoderTimeoutMultiplier float64 `yaml:"decoder_timeout_multiplier"`

	// FallbackRefreshRate is used when the runtime reports no rates.
	FallbackRefreshRate float32 `yaml:"fallback_refresh_rate"`

	// FaceTracking toggles apply when the host's stream settings leave
	// face tracking unspecified.
	FaceTracking xr.FaceSources `yaml:"face_tracking"`
}

type TelemetryConfig struct {
	Interval Duration `yaml:"interval"`
	Window   int      `yaml:"window"`
}

func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			URL:            "ws://127.0.0.1:9944/client",
			ConnectTimeout: Duration(5 * time.Second),
		},
		Headset: HeadsetConfig{
			HeadPredictionOffset:     Duration(35 * time.Millisecond),
			TrackerPredictionOffset:  Duration(20 * time.Millisecond),
			DecoderTimeoutMultiplier: 0.8,
			FallbackRefreshRate:      90,
		},
		Telemetry: TelemetryConfig{
			Interval: Duration(5 * time.Second),
			Window:   256,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the compiled-in configuration, used when no file is given.
func Default() *Config {
	return defaultConfig()
}

func (c *Config) validate() error {
	if c.Headset.DecoderTimeoutMultiplier <= 0 || c.Headset.DecoderTimeoutMultiplier > 1 {
		return fmt.Errorf("decoder_timeout_multiplier %v out of range (0, 1]", c.Headset.DecoderTimeoutMultiplier)
	}
	if c.Headset.FallbackRefreshRate <= 0 {
		return fmt.Errorf("fallback_refresh_rate %v must be positive", c.Headset.FallbackRefreshRate)
	}
	if c.Telemetry.Window <= 0 {
		return fmt.Errorf("telemetry window %d must be positive", c.Telemetry.Window)
	}
	return nil
}
