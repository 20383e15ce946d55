// Package ast defines the tree produced by the tree builder.
package ast

import (
	"bytes"
	"strings"

	"github.com/sambeau/jsxplay/pkg/jsx/lexer"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	ExpressionNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case ExpressionNode:
		return "expression"
	default:
		return "unknown"
	}
}

// Node is one node of the tree. Element nodes use Tag, Props, Children and
// SelfClosing; text and expression nodes use Value only and never have
// children.
type Node struct {
	Kind        Kind
	Tag         string
	Props       lexer.Attrs
	Children    []*Node
	SelfClosing bool
	Value       string
	Pos         lexer.Position
}

// NewElement creates an element node.
func NewElement(tag string, props lexer.Attrs) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Props: props}
}

// NewText creates a text leaf.
func NewText(value string) *Node {
	return &Node{Kind: TextNode, Value: value}
}

// NewExpression creates an expression leaf. value excludes the braces.
func NewExpression(value string) *Node {
	return &Node{Kind: ExpressionNode, Value: value}
}

// IsComponent reports whether the element names a registered-component
// style tag (leading uppercase letter) rather than a native tag.
func (n *Node) IsComponent() bool {
	return n.Kind == ElementNode && IsComponentName(n.Tag)
}

// IsComponentName reports whether name starts with an uppercase ASCII letter.
func IsComponentName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// ID returns the element's id attribute when it is a plain string.
func (n *Node) ID() string {
	if n.Kind != ElementNode {
		return ""
	}
	v, ok := n.Props.Get("id")
	if !ok || v.Kind != lexer.StringValue {
		return ""
	}
	return v.Str
}

// AppendChild adds child as the last child.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// String returns a compact one-line rendering for debugging.
func (n *Node) String() string {
	var out bytes.Buffer
	n.writeTo(&out)
	return out.String()
}

func (n *Node) writeTo(out *bytes.Buffer) {
	switch n.Kind {
	case TextNode:
		out.WriteString(n.Value)
	case ExpressionNode:
		out.WriteString("{" + n.Value + "}")
	default:
		out.WriteString("<" + n.Tag)
		for _, a := range n.Props {
			out.WriteString(" " + a.Name + "=" + a.Value.Source())
		}
		if n.SelfClosing && len(n.Children) == 0 {
			out.WriteString(" />")
			return
		}
		out.WriteString(">")
		for _, c := range n.Children {
			c.writeTo(out)
		}
		out.WriteString("</" + n.Tag + ">")
	}
}

// Walk visits every node depth-first in document order. Returning false
// from fn skips the node's children.
func Walk(nodes []*Node, fn func(*Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			Walk(n.Children, fn)
		}
	}
}

// Find returns the first node, in document order, for which match is true.
func Find(nodes []*Node, match func(*Node) bool) *Node {
	var found *Node
	Walk(nodes, func(n *Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByID returns the first element whose id attribute equals id.
func FindByID(nodes []*Node, id string) *Node {
	return Find(nodes, func(n *Node) bool { return n.ID() == id })
}

// CountTag returns how many elements anywhere in the tree have the tag name.
func CountTag(nodes []*Node, tag string) int {
	count := 0
	Walk(nodes, func(n *Node) bool {
		if n.Kind == ElementNode && n.Tag == tag {
			count++
		}
		return true
	})
	return count
}

// Tags returns the distinct element tag names in document order.
func Tags(nodes []*Node) []string {
	seen := map[string]bool{}
	var tags []string
	Walk(nodes, func(n *Node) bool {
		if n.Kind == ElementNode && !seen[n.Tag] {
			seen[n.Tag] = true
			tags = append(tags, n.Tag)
		}
		return true
	})
	return tags
}

// Text concatenates the text leaves beneath nodes, separated by spaces.
func Text(nodes []*Node) string {
	var parts []string
	Walk(nodes, func(n *Node) bool {
		if n.Kind == TextNode {
			parts = append(parts, n.Value)
		}
		return true
	})
	return strings.Join(parts, " ")
}
