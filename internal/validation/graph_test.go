package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/pkg/schema"
)

func chainDoc(names ...string) *schema.Workflow {
	b := generator.NewBuilder("test")
	for i, n := range names {
		node := schema.Node{Name: n, ID: n, Type: schema.TypeCode, TypeVersion: 2, Position: []int{i, 0}}
		if i == 0 {
			node.Type = schema.TypeScheduleTrigger
		}
		_ = b.AddNode(node)
	}
	_ = b.Chain(names...)
	w, _ := b.Build()
	return w
}

func edge(to string) []schema.Connection {
	return []schema.Connection{{Node: to, Type: schema.ChannelMain, Index: 0}}
}

func TestGraph_LinearChain(t *testing.T) {
	result := validateGraph(chainDoc("a", "b", "c"))
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestGraph_SingleNode(t *testing.T) {
	result := validateGraph(chainDoc("a"))
	assert.True(t, result.Valid())
}

func TestGraph_DanglingTarget(t *testing.T) {
	w := chainDoc("a", "b")
	w.Connections[0].Main[0] = edge("ghost")

	result := validateGraph(w)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schema.ErrCodeGraph, result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, `"ghost"`)
}

func TestGraph_UnknownSource(t *testing.T) {
	w := chainDoc("a", "b")
	w.Connections = append(w.Connections, schema.SourceConnections{Source: "ghost", Main: [][]schema.Connection{edge("a")}})

	result := validateGraph(w)
	require.False(t, result.Valid())
	assert.Equal(t, "connections[ghost]", result.Errors[0].Path)
}

func TestGraph_DisconnectedNode(t *testing.T) {
	w := chainDoc("a", "b")
	w.Nodes = append(w.Nodes, schema.Node{Name: "loose"})

	result := validateGraph(w)
	require.False(t, result.Valid())
	assert.Equal(t, "nodes[loose]", result.Errors[0].Path)
}

func TestGraph_FanOut(t *testing.T) {
	w := chainDoc("a", "b", "c")
	w.Connections[0].Main[0] = append(w.Connections[0].Main[0], edge("c")...)

	result := validateGraph(w)
	require.False(t, result.Valid())
	var msgs []string
	for _, e := range result.Errors {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, `node "a" feeds 2 nodes, want at most 1`)
	assert.Contains(t, msgs, `node "c" is fed by 2 nodes, want at most 1`)
}

func TestGraph_Cycle(t *testing.T) {
	w := chainDoc("a", "b", "c")
	w.Connections = append(w.Connections, schema.SourceConnections{Source: "c", Main: [][]schema.Connection{edge("b")}})

	result := validateGraph(w)
	require.False(t, result.Valid())
}

func TestGraph_PureCycle(t *testing.T) {
	w := chainDoc("a", "b")
	w.Connections = append(w.Connections, schema.SourceConnections{Source: "b", Main: [][]schema.Connection{edge("a")}})

	result := validateGraph(w)
	require.False(t, result.Valid())
	var codes []string
	for _, e := range result.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, schema.ErrCodeGraph)
}

func TestGraph_ChannelAndIndex(t *testing.T) {
	w := chainDoc("a", "b")
	w.Connections[0].Main[0][0].Type = "ai_tool"
	w.Connections[0].Main[0][0].Index = 1

	result := validateGraph(w)
	assert.Len(t, result.Errors, 2)
}

func TestGraph_DuplicateNames(t *testing.T) {
	w := chainDoc("a", "b")
	w.Nodes = append(w.Nodes, schema.Node{Name: "b"})

	result := validateGraph(w)
	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, "duplicate node name")
}

func TestGraph_EntryNotTriggerWarns(t *testing.T) {
	w := chainDoc("a", "b")
	w.Nodes[0].Type = schema.TypeCode

	result := validateGraph(w)
	assert.True(t, result.Valid())
	require.Len(t, result.Warnings, 1)
}

func TestDuplicateCheck(t *testing.T) {
	withDedup := generator.Generate(scenario(true))
	withoutDedup := generator.Generate(scenario(false))

	assert.True(t, validateDuplicateCheck(withDedup, true).Valid())
	assert.True(t, validateDuplicateCheck(withoutDedup, false).Valid())
	assert.False(t, validateDuplicateCheck(withDedup, false).Valid())
	assert.False(t, validateDuplicateCheck(withoutDedup, true).Valid())
}

func TestDuplicateCheck_NodeNotWired(t *testing.T) {
	w := generator.Generate(scenario(true))
	var kept schema.Connections
	for _, sc := range w.Connections {
		if sc.Source != generator.NodeDuplicates {
			kept = append(kept, sc)
		}
	}
	w.Connections = kept

	result := validateDuplicateCheck(w, true)
	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, "not wired")
}

func TestGenerated_TopologyProperties(t *testing.T) {
	for _, dedup := range []bool{true, false} {
		w := generator.Generate(scenario(dedup))
		assert.True(t, validateGraph(w).Valid(), "dedup=%v", dedup)
		assert.True(t, validateDuplicateCheck(w, dedup).Valid(), "dedup=%v", dedup)
	}
}
