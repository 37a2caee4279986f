package protocol

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
)

// BuildSuccess constructs a framed success response body. The build callback,
// if non-nil, populates the params element.
func BuildSuccess(build func(params *Element)) []byte {
	root := NewElement("response")
	result := root.Add("result")
	result.AddBool("success", true)
	if build != nil {
		build(result.Add("params"))
	}
	return root.Marshal()
}

// BuildFailure constructs a framed failure response body without an error
// message, for commands whose failures carry no detail.
func BuildFailure() []byte {
	root := NewElement("response")
	result := root.Add("result")
	result.AddBool("success", false)
	return root.Marshal()
}

// BuildError constructs a framed failure response body carrying the specified
// error message.
func BuildError(message string) []byte {
	root := NewElement("response")
	result := root.Add("result")
	result.AddBool("success", false)
	result.AddText("error", message)
	return root.Marshal()
}

// formatTimestamp serialises a timestamp as float seconds since the UNIX
// epoch, preserving fractional seconds.
func formatTimestamp(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// AddDirNode appends a <dir> node for the specified object. Directory nodes
// omit the size field.
func AddDirNode(parent *Element, object *fs.Object) {
	node := parent.Add("dir")
	node.AddText("rel-path", object.RelPath)
	node.AddText("create-timestamp", formatTimestamp(fs.Timestamp(object.CreateDate)))
	node.AddText("modify-timestamp", formatTimestamp(fs.Timestamp(object.ModifyDate)))
}

// AddFileNode appends a <file> node for the specified object.
func AddFileNode(parent *Element, object *fs.Object) {
	node := parent.Add("file")
	node.AddText("rel-path", object.RelPath)
	node.AddInt("size", object.Size)
	node.AddText("create-timestamp", formatTimestamp(fs.Timestamp(object.CreateDate)))
	node.AddText("modify-timestamp", formatTimestamp(fs.Timestamp(object.ModifyDate)))
}

// AddObjectNode appends either a <dir> or <file> node depending on the kind
// of the specified object.
func AddObjectNode(parent *Element, object *fs.Object) {
	if object.IsDir() {
		AddDirNode(parent, object)
	} else {
		AddFileNode(parent, object)
	}
}

// AddEventNode appends an <event> node for the specified change event.
func AddEventNode(parent *Element, event *events.Event) {
	node := parent.Add("event")
	node.AddText("type", string(event.Type))
	node.AddText("src", event.Src)
	node.AddBool("is_dir", event.Dir)
}

// Response is a parsed daemon response.
type Response struct {
	// result is the result element.
	result *Node
}

// ParseResponse parses a framed response body.
func ParseResponse(data []byte) (*Response, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "response" {
		return nil, errors.Errorf("unexpected root element: %s", root.Tag)
	}
	result := root.Child("result")
	if result == nil {
		return nil, errors.New("response carries no result")
	}
	return &Response{result: result}, nil
}

// Success indicates whether the response reports success.
func (r *Response) Success() bool {
	return ParseBool(r.result.Text("success"))
}

// Error returns the error message carried by a failure response.
func (r *Response) Error() string {
	return r.result.Text("error")
}

// Params returns the response's params element, which may be nil.
func (r *Response) Params() *Node {
	return r.result.Child("params")
}

// ObjectFromNode reconstructs an object from a <dir> or <file> wire node
// under the specified base path.
func ObjectFromNode(basePath string, node *Node) (*fs.Object, error) {
	relPath := node.Text("rel-path")
	if relPath == "" {
		return nil, errors.New("node carries no rel-path")
	}
	createSeconds, err := strconv.ParseFloat(node.Text("create-timestamp"), 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid create timestamp")
	}
	modifySeconds, err := strconv.ParseFloat(node.Text("modify-timestamp"), 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid modify timestamp")
	}
	if node.Tag == "dir" {
		return fs.NewDirectory(
			basePath, relPath,
			fs.FromTimestamp(createSeconds), fs.FromTimestamp(modifySeconds),
		), nil
	}
	size, err := strconv.ParseInt(node.Text("size"), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid size")
	}
	return fs.NewFile(
		basePath, relPath, size,
		fs.FromTimestamp(createSeconds), fs.FromTimestamp(modifySeconds),
	), nil
}

// EventFromNode reconstructs a change event from an <event> wire node.
func EventFromNode(node *Node) (*events.Event, error) {
	eventType := events.Type(node.Text("type"))
	switch eventType {
	case events.TypeCreated, events.TypeDeleted, events.TypeModified:
	default:
		return nil, errors.Errorf("unknown event type: %s", node.Text("type"))
	}
	return &events.Event{
		Type: eventType,
		Src:  node.Text("src"),
		Dir:  ParseBool(node.Text("is_dir")),
	}, nil
}
