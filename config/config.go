// Package config loads the orchestrator's settings table: partitioning,
// slot sizing, endpoints, and reconnect policy. Grounded on the teacher's
// TOML-via-go-toml/v2 config.Load, with env-var overrides added per the
// teacher's ALEPH_FEEDER_CONFIG/ALEPH_SHM pattern in main.go.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full set of knobs the orchestrator needs to stand up the
// slot table, the feed workers, and the metadata fetch.
type Config struct {
	PartitionWidth int    `toml:"partition_width"`
	SlotStride     int    `toml:"slot_stride"`
	LatencyWindow  int    `toml:"latency_window"`
	MappingPath    string `toml:"mapping_path"`
	RestBaseURL    string `toml:"rest_base_url"`
	WSURL          string `toml:"ws_url"`
	// Reconnect is "exit" or "reconnect", resolving §9's open question.
	Reconnect        string        `toml:"reconnect"`
	ReconnectBackoff time.Duration `toml:"reconnect_backoff"`
	// InflateBufferSize is the per-worker scratch gzip output buffer. Zero
	// means "use SlotStride", its natural default.
	InflateBufferSize int `toml:"inflate_buffer_size"`
}

func defaults() Config {
	return Config{
		PartitionWidth:    150,
		SlotStride:        320,
		LatencyWindow:     128,
		MappingPath:       "/tmp/ticks.mmap",
		RestBaseURL:       "https://api-aws.huobi.pro",
		WSURL:             "wss://api-aws.huobi.pro/ws",
		Reconnect:         "reconnect",
		ReconnectBackoff:  3 * time.Second,
		InflateBufferSize: 0,
	}
}

// Load reads path as TOML over the defaults, then applies .env/environment
// overrides for the settings the teacher's main.go overrides this way, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if b, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	_ = godotenv.Load() // best-effort; absence of a .env file is not an error

	if v := os.Getenv("TICKFEED_MAPPING_PATH"); v != "" {
		cfg.MappingPath = v
	}
	if v := os.Getenv("TICKFEED_REST_BASE_URL"); v != "" {
		cfg.RestBaseURL = v
	}
	if v := os.Getenv("TICKFEED_WS_URL"); v != "" {
		cfg.WSURL = v
	}

	if cfg.InflateBufferSize == 0 {
		cfg.InflateBufferSize = cfg.SlotStride
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PartitionWidth <= 0 {
		return fmt.Errorf("config: partition_width must be positive, got %d", c.PartitionWidth)
	}
	if c.SlotStride <= 0 {
		return fmt.Errorf("config: slot_stride must be positive, got %d", c.SlotStride)
	}
	if c.LatencyWindow <= 0 {
		return fmt.Errorf("config: latency_window must be positive, got %d", c.LatencyWindow)
	}
	if c.MappingPath == "" {
		return fmt.Errorf("config: mapping_path must not be empty")
	}
	if c.RestBaseURL == "" {
		return fmt.Errorf("config: rest_base_url must not be empty")
	}
	if c.WSURL == "" {
		return fmt.Errorf("config: ws_url must not be empty")
	}
	switch c.Reconnect {
	case "exit", "reconnect":
	default:
		return fmt.Errorf("config: reconnect must be %q or %q, got %q", "exit", "reconnect", c.Reconnect)
	}
	if c.ReconnectBackoff <= 0 {
		return fmt.Errorf("config: reconnect_backoff must be positive, got %s", c.ReconnectBackoff)
	}
	return nil
}
