package diagram

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RenderASCIIAuto renders through the mermaid-ascii binary in binDir when it
// is installed, falling back to RenderASCII.
func RenderASCIIAuto(model *DiagramModel, binDir string) string {
	if binDir != "" {
		binPath := filepath.Join(binDir, "mermaid-ascii")
		if _, err := os.Stat(binPath); err == nil {
			if out, err := RenderASCIIViaCLI(model, binPath); err == nil {
				return out
			}
		}
	}
	return RenderASCII(model)
}

// RenderASCIIViaCLI pipes RenderMermaidForCLI output through mermaid-ascii.
func RenderASCIIViaCLI(model *DiagramModel, binPath string) (string, error) {
	cmd := exec.Command(binPath)
	cmd.Stdin = strings.NewReader(RenderMermaidForCLI(model))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("mermaid-ascii: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// RenderMermaidForCLI emits edges only, with labels folded into dashed ids,
// since mermaid-ascii cannot parse ["label"] node declarations.
func RenderMermaidForCLI(model *DiagramModel) string {
	ids := make(map[string]string, len(model.Nodes))
	for _, node := range model.Nodes {
		ids[node.ID] = strings.ReplaceAll(node.Label, " ", "-")
	}

	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, edge := range model.Edges {
		fmt.Fprintf(&b, "    %s --> %s\n", ids[edge.From], ids[edge.To])
	}
	return b.String()
}
