// pkg/registry/schema.go
package registry

// Graph describes the copilot pipeline: its nodes and the node order of each workflow.
type Graph struct {
	Version   string              `json:"version"`
	Entry     string              `json:"entry"`
	Nodes     []Activity          `json:"nodes"`
	Workflows map[string][]string `json:"workflows"`
	// Stages lists, per workflow, the groups of nodes that run concurrently.
	Stages map[string][][]string `json:"stages,omitempty"`
}

type Activity struct {
	ID          string   `json:"id"`
	TaskType    string   `json:"taskType"`
	Description string   `json:"description"`
	Timeout     string   `json:"timeout,omitempty"`
	Workflows   []string `json:"workflows"`
	Tags        []string `json:"tags,omitempty"`
}

// Activity returns the node with the given id.
func (g *Graph) Activity(id string) (Activity, bool) {
	for _, a := range g.Nodes {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}
