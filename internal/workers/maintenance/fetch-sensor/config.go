// internal/workers/maintenance/fetch-sensor/config.go
package fetchsensor

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
