// internal/workers/maintenance/analyze-condition/config.go
package analyzecondition

type Config struct {
	// JitterSeed fixes the time-to-failure jitter source. Zero seeds from the clock.
	JitterSeed int64
}

func LoadConfig() *Config {
	return &Config{}
}
