package registry

import (
	"fmt"
	"reflect"
	"sort"
)

// Validate checks that g is internally consistent.
func Validate(g *Graph) error {
	if len(g.Nodes) == 0 {
		return fmt.Errorf("graph contains no nodes")
	}

	ids := make(map[string]bool, len(g.Nodes))
	for _, a := range g.Nodes {
		if a.ID == "" {
			return fmt.Errorf("node missing required field: id")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate node id: %s", a.ID)
		}
		ids[a.ID] = true
		if a.TaskType == "" {
			return fmt.Errorf("node %s missing required field: taskType", a.ID)
		}
	}

	if !ids[g.Entry] {
		return fmt.Errorf("entry node %q is not declared", g.Entry)
	}

	for name, order := range g.Workflows {
		for _, id := range order {
			if !ids[id] {
				return fmt.Errorf("workflow %s references unknown node %s", name, id)
			}
		}
		stages, ok := g.Stages[name]
		if !ok {
			continue
		}
		var flat []string
		for _, s := range stages {
			flat = append(flat, s...)
		}
		if !reflect.DeepEqual(flat, order) {
			return fmt.Errorf("workflow %s stages %v do not match order %v", name, flat, order)
		}
	}
	return nil
}

// Diff lists the differences between a saved graph and the running one.
// An empty result means the two are equivalent.
func Diff(saved, live *Graph) []string {
	var out []string
	if saved.Entry != live.Entry {
		out = append(out, fmt.Sprintf("entry: %s != %s", saved.Entry, live.Entry))
	}
	if saved.Version != live.Version {
		out = append(out, fmt.Sprintf("version: %s != %s", saved.Version, live.Version))
	}

	for _, a := range live.Nodes {
		s, ok := saved.Activity(a.ID)
		if !ok {
			out = append(out, fmt.Sprintf("node %s: missing from saved graph", a.ID))
			continue
		}
		if s.TaskType != a.TaskType {
			out = append(out, fmt.Sprintf("node %s: taskType %s != %s", a.ID, s.TaskType, a.TaskType))
		}
		if s.Timeout != a.Timeout {
			out = append(out, fmt.Sprintf("node %s: timeout %s != %s", a.ID, s.Timeout, a.Timeout))
		}
	}
	for _, s := range saved.Nodes {
		if _, ok := live.Activity(s.ID); !ok {
			out = append(out, fmt.Sprintf("node %s: no longer in pipeline", s.ID))
		}
	}

	names := make(map[string]bool)
	for n := range saved.Workflows {
		names[n] = true
	}
	for n := range live.Workflows {
		names[n] = true
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	for _, n := range sorted {
		if !reflect.DeepEqual(saved.Workflows[n], live.Workflows[n]) {
			out = append(out, fmt.Sprintf("workflow %s: %v != %v", n, saved.Workflows[n], live.Workflows[n]))
		}
	}
	return out
}
