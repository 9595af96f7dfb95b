package heap

import "github.com/caarlos0/env/v6"

// Config carries the tuning knobs of a runtime instance. The numbers are
// not part of the layout contract; they were tuning constants in the
// dual 32/64-bit ancestry of this design and are treated as per-instance
// configuration here.
type Config struct {
	// SegmentUnits is the number of fixed-size units a pool segment
	// holds. Larger segments amortize growth, smaller ones waste less on
	// tiny runtimes.
	SegmentUnits int `env:"CELLAR_SEGMENT_UNITS" envDefault:"256"`

	// BiasWindow is the maximum head-room (in elements) a dynamic stub
	// may accumulate through head removals before the next mutation
	// re-centers the data.
	BiasWindow int `env:"CELLAR_BIAS_WINDOW" envDefault:"65535"`

	// EmbedThreshold is the byte capacity at or below which a byte-width
	// stub uses its embedded buffer instead of a dynamic allocation. It
	// is clamped to the physical embedded capacity.
	EmbedThreshold int `env:"CELLAR_EMBED_THRESHOLD" envDefault:"24"`

	// GCDebug enables per-cycle collector logging.
	GCDebug bool `env:"CELLAR_GC_DEBUG"`
}

// DefaultConfig returns the built-in tuning values.
func DefaultConfig() Config {
	return Config{
		SegmentUnits:   256,
		BiasWindow:     65535,
		EmbedThreshold: embedBytesCap,
	}
}

// ConfigFromEnv returns the default configuration overridden by any
// CELLAR_* environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	c.normalize()
	return c, nil
}

func (c *Config) normalize() {
	if c.SegmentUnits <= 0 {
		c.SegmentUnits = 256
	}
	if c.BiasWindow <= 0 {
		c.BiasWindow = 65535
	}
	if c.EmbedThreshold < 0 || c.EmbedThreshold > embedBytesCap {
		c.EmbedThreshold = embedBytesCap
	}
}
