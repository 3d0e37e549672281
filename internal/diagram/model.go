package diagram

// NodeKind classifies a diagram node by its workflow node kind.
type NodeKind string

const (
	NodeKindTrigger   NodeKind = "trigger"
	NodeKindSet       NodeKind = "set"
	NodeKindSearch    NodeKind = "search"
	NodeKindTransform NodeKind = "transform"
	NodeKindLookup    NodeKind = "lookup"
	NodeKindAppend    NodeKind = "append"
	NodeKindOther     NodeKind = "other"
	NodeKindStart     NodeKind = "start"
	NodeKindEnd       NodeKind = "end"
)

// DiagramModel is the intermediate representation used by all renderers.
// Nodes are in execution order, bracketed by virtual start and end nodes.
type DiagramModel struct {
	Title string
	Nodes []*Node
	Edges []Edge
}

// Node is one box in the diagram.
type Node struct {
	ID     string
	Label  string
	Kind   NodeKind
	Detail string
}

// Edge joins two nodes in execution order.
type Edge struct {
	From  string
	To    string
	Label string
}
