// internal/workers/maintenance/identify-machine/config.go
package identifymachine

type Config struct {
	// SearchLimit caps fuzzy machine lookups.
	SearchLimit int
}

func LoadConfig() *Config {
	return &Config{
		SearchLimit: 20,
	}
}
