// internal/workers/maintenance/generate-answer/config.go
package generateanswer

type Config struct {
	// History window per query type.
	DocumentationHistory int
	MachineHistory       int
	// MaxListItems caps each heuristic list in the structured response.
	MaxListItems int
}

func LoadConfig() *Config {
	return &Config{
		DocumentationHistory: 2,
		MachineHistory:       3,
		MaxListItems:         5,
	}
}
