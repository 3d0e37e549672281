package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChannelMain is the only connection channel scrapegen emits.
const ChannelMain = "main"

// NodeKind classifies a workflow node independently of its n8n type string.
type NodeKind string

const (
	KindScheduleTrigger   NodeKind = "schedule-trigger"
	KindVariableSet       NodeKind = "variable-set"
	KindSearch            NodeKind = "search"
	KindTransform         NodeKind = "transform"
	KindSpreadsheetLookup NodeKind = "spreadsheet-lookup"
	KindSpreadsheetAppend NodeKind = "spreadsheet-append"
)

// n8n node type identifiers.
const (
	TypeScheduleTrigger = "n8n-nodes-base.scheduleTrigger"
	TypeSet             = "n8n-nodes-base.set"
	TypeReddit          = "n8n-nodes-base.reddit"
	TypeCode            = "n8n-nodes-base.code"
	TypeGoogleSheets    = "n8n-nodes-base.googleSheets"
)

// NodeSpec is the n8n type string and type version a kind is emitted as.
type NodeSpec struct {
	Type        string
	TypeVersion float64
}

var nodeSpecs = map[NodeKind]NodeSpec{
	KindScheduleTrigger:   {Type: TypeScheduleTrigger, TypeVersion: 1.1},
	KindVariableSet:       {Type: TypeSet, TypeVersion: 2},
	KindSearch:            {Type: TypeReddit, TypeVersion: 1},
	KindTransform:         {Type: TypeCode, TypeVersion: 2},
	KindSpreadsheetLookup: {Type: TypeGoogleSheets, TypeVersion: 3},
	KindSpreadsheetAppend: {Type: TypeGoogleSheets, TypeVersion: 3},
}

// Spec returns the n8n type for k. ok is false for unknown kinds.
func (k NodeKind) Spec() (NodeSpec, bool) {
	s, ok := nodeSpecs[k]
	return s, ok
}

// Workflow is an n8n workflow document.
type Workflow struct {
	Name        string      `json:"name"`
	Nodes       []Node      `json:"nodes"`
	Connections Connections `json:"connections"`
}

// Node is one typed unit of work. Position is cosmetic.
type Node struct {
	Parameters  Params      `json:"parameters"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	TypeVersion float64     `json:"typeVersion"`
	Position    []int       `json:"position"`
	Credentials Credentials `json:"credentials,omitempty"`
}

// Credentials maps an n8n credential type to the reference the node uses.
type Credentials map[string]CredentialRef

// CredentialRef points at a credential stored in the n8n instance.
type CredentialRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Connection is one directed edge into a target node's input.
type Connection struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// SourceConnections lists the outgoing edges of one node, grouped per
// output index.
type SourceConnections struct {
	Source string
	Main   [][]Connection
}

// Connections is the ordered connection map of a workflow, keyed by source
// node name.
type Connections []SourceConnections

// Get returns the output groups of source.
func (c Connections) Get(source string) ([][]Connection, bool) {
	for _, sc := range c {
		if sc.Source == source {
			return sc.Main, true
		}
	}
	return nil, false
}

// Targets returns every node name source feeds, in order.
func (c Connections) Targets(source string) []string {
	groups, _ := c.Get(source)
	var out []string
	for _, g := range groups {
		for _, conn := range g {
			out = append(out, conn.Node)
		}
	}
	return out
}

type nodeConnectionsJSON struct {
	Main [][]Connection `json:"main"`
}

// MarshalJSON writes the connections as an object keyed by source name.
func (c Connections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeRaw(&buf, sc.Source); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeRaw(&buf, nodeConnectionsJSON{Main: sc.Main}); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a connection object keeping source order.
func (c *Connections) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("connections: expected JSON object")
	}
	out := Connections{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		source, _ := keyTok.(string)
		var nc nodeConnectionsJSON
		if err := dec.Decode(&nc); err != nil {
			return fmt.Errorf("connections: %s: %w", source, err)
		}
		out = append(out, SourceConnections{Source: source, Main: nc.Main})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// KindOf classifies n by its n8n type and, for spreadsheet nodes, its
// operation. Unknown types yield "".
func KindOf(n Node) NodeKind {
	switch n.Type {
	case TypeScheduleTrigger:
		return KindScheduleTrigger
	case TypeSet:
		return KindVariableSet
	case TypeReddit:
		return KindSearch
	case TypeCode:
		return KindTransform
	case TypeGoogleSheets:
		if n.Parameters.String("operation") == "lookup" {
			return KindSpreadsheetLookup
		}
		return KindSpreadsheetAppend
	default:
		return ""
	}
}

// Node returns the node named name.
func (w *Workflow) Node(name string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// NodeNames returns node names in document order.
func (w *Workflow) NodeNames() []string {
	names := make([]string, len(w.Nodes))
	for i, n := range w.Nodes {
		names[i] = n.Name
	}
	return names
}

// Canonical renders the document as two-space indented JSON with keys in
// construction order and no trailing newline.
func (w *Workflow) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return nil, NewError(ErrCodeDecode, "encode workflow").WithCause(err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// AsMap returns the document as generic JSON values, the shape expression
// engines consume.
func (w *Workflow) AsMap() (map[string]any, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, NewError(ErrCodeDecode, "encode workflow").WithCause(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, NewError(ErrCodeDecode, "decode workflow").WithCause(err)
	}
	return out, nil
}

// ParseWorkflow decodes an n8n workflow document.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, NewError(ErrCodeDecode, "invalid workflow JSON").WithCause(err)
	}
	return &w, nil
}
