package diagram

import (
	"fmt"
	"strings"

	"github.com/rendis/scrapegen/pkg/schema"
)

// Virtual node ids.
const (
	StartID = "__start__"
	EndID   = "__end__"
)

// Build walks the chain of w from its entry node and returns the diagram
// model. Documents that are not a single linear chain are rejected.
func Build(w *schema.Workflow) (*DiagramModel, error) {
	if w == nil || len(w.Nodes) == 0 {
		return nil, fmt.Errorf("diagram: workflow has no nodes")
	}

	fed := make(map[string]bool, len(w.Nodes))
	for _, sc := range w.Connections {
		for _, t := range w.Connections.Targets(sc.Source) {
			fed[t] = true
		}
	}
	var entry string
	for _, n := range w.Nodes {
		if !fed[n.Name] {
			if entry != "" {
				return nil, fmt.Errorf("diagram: more than one entry node (%q, %q)", entry, n.Name)
			}
			entry = n.Name
		}
	}
	if entry == "" {
		return nil, fmt.Errorf("diagram: no entry node, the workflow is cyclic")
	}

	model := &DiagramModel{Title: w.Name}
	model.Nodes = append(model.Nodes, &Node{ID: StartID, Label: "Start", Kind: NodeKindStart})
	prev := StartID

	visited := make(map[string]bool, len(w.Nodes))
	for name := entry; name != ""; {
		if visited[name] {
			return nil, fmt.Errorf("diagram: cycle at node %q", name)
		}
		visited[name] = true

		n, ok := w.Node(name)
		if !ok {
			return nil, fmt.Errorf("diagram: connection to unknown node %q", name)
		}
		node := toNode(n)
		model.Nodes = append(model.Nodes, node)
		model.Edges = append(model.Edges, Edge{From: prev, To: node.ID})
		prev = node.ID

		targets := w.Connections.Targets(name)
		switch len(targets) {
		case 0:
			name = ""
		case 1:
			name = targets[0]
		default:
			return nil, fmt.Errorf("diagram: node %q branches to %v", name, targets)
		}
	}
	if len(visited) != len(w.Nodes) {
		return nil, fmt.Errorf("diagram: %d of %d nodes are not on the main chain", len(w.Nodes)-len(visited), len(w.Nodes))
	}

	model.Nodes = append(model.Nodes, &Node{ID: EndID, Label: "End", Kind: NodeKindEnd})
	model.Edges = append(model.Edges, Edge{From: prev, To: EndID})
	return model, nil
}

func toNode(n schema.Node) *Node {
	kind := kindOf(schema.KindOf(n))
	return &Node{
		ID:     safeID(n.Name),
		Label:  n.Name,
		Kind:   kind,
		Detail: detail(kind, n.Parameters),
	}
}

func kindOf(k schema.NodeKind) NodeKind {
	switch k {
	case schema.KindScheduleTrigger:
		return NodeKindTrigger
	case schema.KindVariableSet:
		return NodeKindSet
	case schema.KindSearch:
		return NodeKindSearch
	case schema.KindTransform:
		return NodeKindTransform
	case schema.KindSpreadsheetLookup:
		return NodeKindLookup
	case schema.KindSpreadsheetAppend:
		return NodeKindAppend
	default:
		return NodeKindOther
	}
}

// detail summarizes the parameters that matter when reading the diagram.
func detail(kind NodeKind, p schema.Params) string {
	switch kind {
	case NodeKindTrigger:
		if h, ok := paramAt(p, "rule", "interval", 0, "hours"); ok {
			return fmt.Sprintf("every %vh", h)
		}
	case NodeKindSearch:
		if l, ok := paramAt(p, "limit"); ok {
			return fmt.Sprintf("limit %v", l)
		}
	case NodeKindLookup:
		return "match on " + p.String("lookupColumn")
	case NodeKindAppend:
		return "range " + p.String("range")
	}
	return ""
}

// paramAt follows path through nested Params (string keys) and lists
// (int indexes).
func paramAt(v any, path ...any) (any, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			p, ok := v.(schema.Params)
			if !ok {
				return nil, false
			}
			if v, ok = p.Get(key); !ok {
				return nil, false
			}
		case int:
			list, ok := v.([]any)
			if !ok || key >= len(list) {
				return nil, false
			}
			v = list[key]
		}
	}
	return v, true
}

// safeID turns a node name into an identifier usable by every renderer.
func safeID(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}
