package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if model.Title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", model.Title)
	}

	for _, node := range model.Nodes {
		fmt.Fprintf(&b, "    %s\n", mermaidNodeDef(node))
	}
	for _, edge := range model.Edges {
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", edge.Label)
		}
		fmt.Fprintf(&b, "    %s -->%s %s\n", edge.From, label, edge.To)
	}

	b.WriteString("\n")
	b.WriteString("    classDef trigger fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef reddit fill:#c0392b,stroke:#7b241c,color:#fff\n")
	b.WriteString("    classDef sheets fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	for _, node := range model.Nodes {
		if cls := mermaidClass(node.Kind); cls != "" {
			fmt.Fprintf(&b, "    class %s %s\n", node.ID, cls)
		}
	}
	return b.String()
}

// mermaidNodeDef returns a node definition with a shape per kind.
func mermaidNodeDef(node *Node) string {
	label := node.Label
	if node.Detail != "" {
		label += "<br/>" + node.Detail
	}
	label = strings.ReplaceAll(label, `"`, "#quot;")

	switch node.Kind {
	case NodeKindStart, NodeKindEnd:
		return fmt.Sprintf("%s((%q))", node.ID, label)
	case NodeKindTrigger:
		return fmt.Sprintf("%s([%q])", node.ID, label)
	case NodeKindLookup:
		return fmt.Sprintf("%s{%q}", node.ID, label)
	case NodeKindAppend:
		return fmt.Sprintf("%s[(%q)]", node.ID, label)
	case NodeKindTransform:
		return fmt.Sprintf("%s[[%q]]", node.ID, label)
	default:
		return fmt.Sprintf("%s[%q]", node.ID, label)
	}
}

func mermaidClass(k NodeKind) string {
	switch k {
	case NodeKindTrigger:
		return "trigger"
	case NodeKindSearch:
		return "reddit"
	case NodeKindLookup, NodeKindAppend:
		return "sheets"
	default:
		return ""
	}
}
