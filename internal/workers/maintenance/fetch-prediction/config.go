// internal/workers/maintenance/fetch-prediction/config.go
package fetchprediction

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
