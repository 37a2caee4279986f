package protocol

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// Element is a buildable XML element used to construct outgoing messages.
type Element struct {
	// Tag is the element tag.
	Tag string
	// Text is the element's character data. It is ignored when the element
	// has children.
	Text string
	// Children are the child elements in output order.
	Children []*Element
}

// NewElement creates an element with the specified tag.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Add appends a child element and returns it.
func (e *Element) Add(tag string) *Element {
	child := NewElement(tag)
	e.Children = append(e.Children, child)
	return child
}

// AddText appends a child element carrying the specified character data.
func (e *Element) AddText(tag, text string) *Element {
	child := e.Add(tag)
	child.Text = text
	return child
}

// AddBool appends a child element carrying a lowercase boolean.
func (e *Element) AddBool(tag string, value bool) *Element {
	return e.AddText(tag, FormatBool(value))
}

// AddInt appends a child element carrying a decimal integer.
func (e *Element) AddInt(tag string, value int64) *Element {
	return e.AddText(tag, strconv.FormatInt(value, 10))
}

// Marshal serialises the element tree into an XML fragment.
func (e *Element) Marshal() []byte {
	buffer := &bytes.Buffer{}
	e.appendTo(buffer)
	return buffer.Bytes()
}

// appendTo writes the element and its subtree to the specified buffer.
func (e *Element) appendTo(buffer *bytes.Buffer) {
	buffer.WriteByte('<')
	buffer.WriteString(e.Tag)
	buffer.WriteByte('>')
	if len(e.Children) > 0 {
		for _, child := range e.Children {
			child.appendTo(buffer)
		}
	} else if e.Text != "" {
		xml.EscapeText(buffer, []byte(e.Text))
	}
	buffer.WriteString("</")
	buffer.WriteString(e.Tag)
	buffer.WriteByte('>')
}

// FormatBool serialises a boolean as lowercase "true"/"false".
func FormatBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

// ParseBool deserialises a lowercase boolean, treating anything other than
// "true" as false.
func ParseBool(value string) bool {
	return value == "true"
}
