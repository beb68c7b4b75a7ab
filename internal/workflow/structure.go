package workflow

import (
	"slices"

	"maintenance-copilot/internal/models"
	analyzecondition "maintenance-copilot/internal/workers/maintenance/analyze-condition"
	analyzemachines "maintenance-copilot/internal/workers/maintenance/analyze-machines"
	fetchprediction "maintenance-copilot/internal/workers/maintenance/fetch-prediction"
	fetchsensor "maintenance-copilot/internal/workers/maintenance/fetch-sensor"
	generateanswer "maintenance-copilot/internal/workers/maintenance/generate-answer"
	identifymachine "maintenance-copilot/internal/workers/maintenance/identify-machine"
	retrieveknowledge "maintenance-copilot/internal/workers/maintenance/retrieve-knowledge"
	"maintenance-copilot/pkg/registry"
)

const graphVersion = "1.0.0"

var catalog = map[string]registry.Activity{
	identifymachine.NodeName: {
		TaskType:    identifymachine.TaskType,
		Description: "Classifies the query and resolves the referenced machine",
		Tags:        []string{"llm", "postgres"},
	},
	fetchsensor.NodeName: {
		TaskType:    fetchsensor.TaskType,
		Description: "Loads recent sensor readings",
		Tags:        []string{"postgres"},
	},
	fetchprediction.NodeName: {
		TaskType:    fetchprediction.TaskType,
		Description: "Loads the latest stored failure prediction",
		Tags:        []string{"postgres"},
	},
	analyzemachines.NodeName: {
		TaskType:    analyzemachines.TaskType,
		Description: "Ranks a filtered machine set by predicted risk",
		Tags:        []string{"postgres"},
	},
	analyzecondition.NodeName: {
		TaskType:    analyzecondition.TaskType,
		Description: "Derives risk level, anomalies and time to failure",
	},
	retrieveknowledge.NodeName: {
		TaskType:    retrieveknowledge.TaskType,
		Description: "Retrieves SOP and manual excerpts by vector similarity",
		Tags:        []string{"embedding", "elasticsearch"},
	},
	generateanswer.NodeName: {
		TaskType:    generateanswer.TaskType,
		Description: "Composes the grounded answer",
		Tags:        []string{"llm"},
	},
}

// Structure describes the node graph: entry node, node order and concurrent stages per workflow.
func (o *Orchestrator) Structure() *registry.Graph {
	g := &registry.Graph{
		Version:   graphVersion,
		Entry:     o.entry.Name(),
		Workflows: make(map[string][]string),
		Stages:    make(map[string][][]string),
	}

	timeout := ""
	if o.config.NodeTimeout > 0 {
		timeout = o.config.NodeTimeout.String()
	}

	memberOf := make(map[string][]string)
	order := []string{o.entry.Name()}

	for _, qt := range []models.QueryType{
		models.QueryTypeSingleMachine,
		models.QueryTypeMultiMachine,
		models.QueryTypeDocumentation,
	} {
		name := string(qt)
		sequence := []string{o.entry.Name()}
		stages := [][]string{{o.entry.Name()}}
		memberOf[o.entry.Name()] = append(memberOf[o.entry.Name()], name)

		for _, s := range o.workflows[qt] {
			var group []string
			for _, n := range s {
				id := n.Name()
				group = append(group, id)
				sequence = append(sequence, id)
				memberOf[id] = append(memberOf[id], name)
				if !slices.Contains(order, id) {
					order = append(order, id)
				}
			}
			stages = append(stages, group)
		}

		g.Workflows[name] = sequence
		g.Stages[name] = stages
	}

	for _, id := range order {
		a := catalog[id]
		a.ID = id
		a.Timeout = timeout
		a.Workflows = memberOf[id]
		g.Nodes = append(g.Nodes, a)
	}
	return g
}
