// internal/workers/maintenance/analyze-machines/config.go
package analyzemachines

type Config struct {
	// MaxMachines caps the ranked list handed to the answer composer.
	MaxMachines int
	// SearchLimit caps the directory query before ranking.
	SearchLimit int
	// SensorConcurrency bounds parallel telemetry reads for trend analysis.
	SensorConcurrency int
}

func LoadConfig() *Config {
	return &Config{
		MaxMachines:       20,
		SearchLimit:       200,
		SensorConcurrency: 8,
	}
}
