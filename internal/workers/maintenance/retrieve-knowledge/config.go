// internal/workers/maintenance/retrieve-knowledge/config.go
package retrieveknowledge

type Config struct {
	Category string

	DocumentationLimit     int
	DocumentationThreshold float64

	RepairLimit     int
	RepairThreshold float64

	MaxSteps int
}

func LoadConfig() *Config {
	return &Config{
		Category:               "sop",
		DocumentationLimit:     3,
		DocumentationThreshold: 0.6,
		RepairLimit:            5,
		RepairThreshold:        0.7,
		MaxSteps:               10,
	}
}
