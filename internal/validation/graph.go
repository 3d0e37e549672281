package validation

import (
	"fmt"

	"github.com/rendis/scrapegen/pkg/schema"
)

// validateGraph checks connection integrity and that the nodes form one
// linear chain: one trigger without inputs, one sink without outputs, no
// fan-in, no fan-out and no cycles (Kahn's algorithm).
func validateGraph(w *schema.Workflow) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	names := make(map[string]bool, len(w.Nodes))
	for i, n := range w.Nodes {
		if names[n.Name] {
			result.AddError(fmt.Sprintf("nodes[%d]", i), schema.ErrCodeGraph,
				fmt.Sprintf("duplicate node name %q", n.Name))
		}
		names[n.Name] = true
	}

	out := make(map[string][]string, len(w.Nodes))
	in := make(map[string][]string, len(w.Nodes))
	seenSource := make(map[string]bool, len(w.Connections))

	for _, sc := range w.Connections {
		path := fmt.Sprintf("connections[%s]", sc.Source)
		if seenSource[sc.Source] {
			result.AddError(path, schema.ErrCodeGraph, "source listed more than once")
		}
		seenSource[sc.Source] = true
		if !names[sc.Source] {
			result.AddError(path, schema.ErrCodeGraph,
				fmt.Sprintf("source %q is not a node", sc.Source))
		}
		for g, group := range sc.Main {
			for _, c := range group {
				edgePath := fmt.Sprintf("%s.main[%d]", path, g)
				if !names[c.Node] {
					result.AddError(edgePath, schema.ErrCodeGraph,
						fmt.Sprintf("target %q is not a node", c.Node))
					continue
				}
				if g != 0 || c.Index != 0 {
					result.AddError(edgePath, schema.ErrCodeGraph,
						fmt.Sprintf("edge %s -> %s must use output 0 and input 0", sc.Source, c.Node))
				}
				if c.Type != schema.ChannelMain {
					result.AddError(edgePath, schema.ErrCodeGraph,
						fmt.Sprintf("edge %s -> %s uses channel %q, want %q", sc.Source, c.Node, c.Type, schema.ChannelMain))
				}
				out[sc.Source] = append(out[sc.Source], c.Node)
				in[c.Node] = append(in[c.Node], sc.Source)
			}
		}
	}
	if !result.Valid() {
		return result // degree checks are noise once references are broken
	}

	var roots, sinks []string
	for i, n := range w.Nodes {
		path := fmt.Sprintf("nodes[%s]", n.Name)
		if len(w.Nodes) > 1 && len(in[n.Name]) == 0 && len(out[n.Name]) == 0 {
			result.AddError(path, schema.ErrCodeGraph, fmt.Sprintf("node %q is not connected", n.Name))
			continue
		}
		if len(out[n.Name]) > 1 {
			result.AddError(path, schema.ErrCodeGraph,
				fmt.Sprintf("node %q feeds %d nodes, want at most 1", n.Name, len(out[n.Name])))
		}
		if len(in[n.Name]) > 1 {
			result.AddError(path, schema.ErrCodeGraph,
				fmt.Sprintf("node %q is fed by %d nodes, want at most 1", n.Name, len(in[n.Name])))
		}
		if len(in[n.Name]) == 0 {
			roots = append(roots, w.Nodes[i].Name)
		}
		if len(out[n.Name]) == 0 {
			sinks = append(sinks, w.Nodes[i].Name)
		}
	}
	if !result.Valid() {
		return result
	}

	if len(roots) != 1 {
		result.AddError("connections", schema.ErrCodeGraph,
			fmt.Sprintf("chain must have exactly one entry node, found %d %v", len(roots), roots))
	}
	if len(sinks) != 1 {
		result.AddError("connections", schema.ErrCodeGraph,
			fmt.Sprintf("chain must have exactly one final node, found %d %v", len(sinks), sinks))
	}

	// Kahn's algorithm over the outgoing edges.
	inDegree := make(map[string]int, len(w.Nodes))
	queue := make([]string, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		inDegree[n.Name] = len(in[n.Name])
		if inDegree[n.Name] == 0 {
			queue = append(queue, n.Name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range out[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited != len(w.Nodes) {
		result.AddError("connections", schema.ErrCodeCycleDetected, "workflow contains a cycle")
		return result
	}

	if len(roots) == 1 {
		if n, _ := w.Node(roots[0]); schema.KindOf(n) != schema.KindScheduleTrigger {
			result.AddWarning(fmt.Sprintf("nodes[%s]", n.Name), schema.ErrCodeGraph,
				fmt.Sprintf("entry node %q is not a schedule trigger", n.Name))
		}
	}
	return result
}

// validateDuplicateCheck requires a spreadsheet lookup node, wired into the
// chain, exactly when the config asks for deduplication.
func validateDuplicateCheck(w *schema.Workflow, checkDuplicates bool) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	var lookups []string
	for _, n := range w.Nodes {
		if schema.KindOf(n) == schema.KindSpreadsheetLookup {
			lookups = append(lookups, n.Name)
		}
	}

	switch {
	case checkDuplicates && len(lookups) == 0:
		result.AddError("nodes", schema.ErrCodeGraph, "check_duplicates is on but the document has no duplicate check node")
	case !checkDuplicates && len(lookups) > 0:
		result.AddError("nodes", schema.ErrCodeGraph,
			fmt.Sprintf("check_duplicates is off but the document contains %v", lookups))
	case len(lookups) > 1:
		result.AddError("nodes", schema.ErrCodeGraph,
			fmt.Sprintf("expected one duplicate check node, found %d", len(lookups)))
	}

	for _, name := range lookups {
		_, feeds := w.Connections.Get(name)
		fed := false
		for _, sc := range w.Connections {
			for _, t := range w.Connections.Targets(sc.Source) {
				if t == name {
					fed = true
				}
			}
		}
		if !feeds || !fed {
			result.AddError(fmt.Sprintf("connections[%s]", name), schema.ErrCodeGraph,
				fmt.Sprintf("duplicate check node %q is not wired into the chain", name))
		}
	}
	return result
}
