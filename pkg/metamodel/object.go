package metamodel

import (
	"fmt"
)

// ClassAccessor provides access to the discriminator tag of a
// metamodel node.
type ClassAccessor interface {
	GetClass() string
}

// Node is the common interface of all tagged metamodel nodes.
type Node interface {
	ClassAccessor
	SetClass(string)
}

// NodeMeta holds the discriminator tag identifying the concrete
// kind of a metamodel node in its serialized form.
type NodeMeta struct {
	Class string `json:"class"`
}

var _ Node = (*NodeMeta)(nil)

func (n *NodeMeta) GetClass() string {
	return n.Class
}

func (n *NodeMeta) SetClass(c string) {
	n.Class = c
}

// Location describes the source position of a construct in the
// originating model text. It is carried along for error reporting,
// only.
type Location struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%d", l.Line)
}
