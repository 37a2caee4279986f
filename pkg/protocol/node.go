package protocol

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Node is a parsed XML element. It captures only what the protocol needs:
// the tag, accumulated character data, and child elements in document order.
type Node struct {
	// Tag is the element tag.
	Tag string
	// Data is the accumulated character data of the element.
	Data string
	// Children are the child elements in document order.
	Children []*Node
}

// Parse parses an XML document into its root Node.
func Parse(data []byte) (*Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var root *Node
	var stack []*Node
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "unable to parse XML")
		}
		switch element := token.(type) {
		case xml.StartElement:
			node := &Node{Tag: element.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			} else if root == nil {
				root = node
			} else {
				return nil, errors.New("multiple root elements")
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Data += string(element)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

// Child returns the first child with the specified tag, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// Text returns the trimmed character data of the first child with the
// specified tag, or an empty string.
func (n *Node) Text(tag string) string {
	child := n.Child(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Data)
}

// Has checks whether a child with the specified tag exists.
func (n *Node) Has(tag string) bool {
	return n.Child(tag) != nil
}
