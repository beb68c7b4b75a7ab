// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"io"
	"os"
)

func LoadRegistry(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Graph
	err = json.Unmarshal(data, &g)
	return &g, err
}

// Write encodes g as indented JSON.
func Write(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// Save writes g to path, replacing any existing file.
func Save(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
