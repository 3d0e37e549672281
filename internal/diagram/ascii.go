package diagram

import (
	"fmt"
	"strings"
)

// RenderASCII renders a DiagramModel as a vertical stack of boxes joined by
// arrows.
func RenderASCII(model *DiagramModel) string {
	var b strings.Builder

	if model.Title != "" {
		fmt.Fprintf(&b, "=== %s ===\n\n", model.Title)
	}

	boxes := make([]asciiBox, 0, len(model.Nodes))
	width := 0
	for _, node := range model.Nodes {
		box := makeBox(node)
		if box.width > width {
			width = box.width
		}
		boxes = append(boxes, box)
	}

	center := width / 2
	for i, box := range boxes {
		indent := strings.Repeat(" ", center-box.width/2)
		for _, line := range box.lines {
			b.WriteString(indent)
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if i < len(boxes)-1 {
			renderConnector(&b, center)
		}
	}
	return b.String()
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBox draws a node. Start and end are drawn as rounded pills.
func makeBox(node *Node) asciiBox {
	content := []string{node.Label}
	if node.Detail != "" {
		content = append(content, node.Detail)
	}

	maxLen := 0
	for _, line := range content {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	width := maxLen + 4 // 2 border + 2 padding

	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if node.Kind == NodeKindStart || node.Kind == NodeKindEnd {
		tl, tr, bl, br = "╭", "╮", "╰", "╯"
	}

	lines := []string{tl + strings.Repeat("─", width-2) + tr}
	for _, c := range content {
		lines = append(lines, "│ "+c+strings.Repeat(" ", maxLen-len([]rune(c)))+" │")
	}
	lines = append(lines, bl+strings.Repeat("─", width-2)+br)
	return asciiBox{lines: lines, width: width}
}

func renderConnector(b *strings.Builder, center int) {
	pad := strings.Repeat(" ", center)
	b.WriteString(pad + "│\n")
	b.WriteString(pad + "▼\n")
}
