package generator

import (
	"github.com/rendis/scrapegen/pkg/schema"
)

// Builder assembles a workflow graph one node and one edge at a time.
// Every edge it accepts joins two nodes already added, so a built document
// never refers to a missing node.
type Builder struct {
	name  string
	nodes []schema.Node
	index map[string]int
	conns schema.Connections
	err   error
}

// NewBuilder starts an empty workflow named name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, index: make(map[string]int)}
}

// AddNode appends n. Duplicate or empty names are rejected.
func (b *Builder) AddNode(n schema.Node) error {
	if n.Name == "" {
		return b.fail(schema.NewError(schema.ErrCodeGraph, "node name is empty"))
	}
	if _, dup := b.index[n.Name]; dup {
		return b.fail(schema.NewErrorf(schema.ErrCodeGraph, "duplicate node %q", n.Name).WithField(n.Name))
	}
	b.index[n.Name] = len(b.nodes)
	b.nodes = append(b.nodes, n)
	return nil
}

// Connect adds a main-channel edge from one node's first output into the
// first input of another. Both nodes must already exist.
func (b *Builder) Connect(from, to string) error {
	for _, name := range []string{from, to} {
		if _, ok := b.index[name]; !ok {
			return b.fail(schema.NewErrorf(schema.ErrCodeGraph, "connect %s -> %s: unknown node %q", from, to, name).WithField(name))
		}
	}
	if from == to {
		return b.fail(schema.NewErrorf(schema.ErrCodeCycleDetected, "node %q cannot feed itself", from))
	}

	edge := schema.Connection{Node: to, Type: schema.ChannelMain, Index: 0}
	for i := range b.conns {
		if b.conns[i].Source != from {
			continue
		}
		if len(b.conns[i].Main) == 0 {
			b.conns[i].Main = [][]schema.Connection{{}}
		}
		b.conns[i].Main[0] = append(b.conns[i].Main[0], edge)
		return nil
	}
	b.conns = append(b.conns, schema.SourceConnections{
		Source: from,
		Main:   [][]schema.Connection{{edge}},
	})
	return nil
}

// Chain connects names pairwise in order.
func (b *Builder) Chain(names ...string) error {
	for i := 1; i < len(names); i++ {
		if err := b.Connect(names[i-1], names[i]); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether a node named name was added.
func (b *Builder) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Build returns the assembled workflow, or the first error recorded by
// AddNode or Connect.
func (b *Builder) Build() (*schema.Workflow, error) {
	if b.err != nil {
		return nil, b.err
	}
	nodes := make([]schema.Node, len(b.nodes))
	copy(nodes, b.nodes)
	conns := make(schema.Connections, len(b.conns))
	copy(conns, b.conns)
	return &schema.Workflow{Name: b.name, Nodes: nodes, Connections: conns}, nil
}

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}
