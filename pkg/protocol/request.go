package protocol

import (
	"strconv"

	"github.com/pkg/errors"
)

// Supported command types.
const (
	CommandCopy           = "copy"
	CommandIsDir          = "isdir"
	CommandExists         = "exists"
	CommandIsFile         = "isfile"
	CommandRemove         = "remove"
	CommandSearch         = "search"
	CommandRefresh        = "refresh"
	CommandGetFSO         = "get_fso"
	CommandTransfer       = "transfer"
	CommandListDir        = "list_dir"
	CommandConsolidate    = "consolidate"
	CommandGetChanges     = "get_changes"
	CommandRefreshPath    = "refresh_path"
	CommandGetPathSize    = "get_path_size"
	CommandConfirmChanges = "confirm_changes"
	CommandListBasePaths  = "list_base_paths"
)

// Request is a parsed client request.
type Request struct {
	// Type is the command type.
	Type string
	// params is the parameter element, if any.
	params *Node
}

// ParseRequest parses a framed request body.
func ParseRequest(data []byte) (*Request, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "request" {
		return nil, errors.Errorf("unexpected root element: %s", root.Tag)
	}
	command := root.Child("command")
	if command == nil {
		return nil, errors.New("request carries no command")
	}
	commandType := command.Text("type")
	if commandType == "" {
		return nil, errors.New("command carries no type")
	}
	return &Request{
		Type:   commandType,
		params: command.Child("params"),
	}, nil
}

// String returns the string parameter with the specified key, or an empty
// string.
func (r *Request) String(key string) string {
	if r.params == nil {
		return ""
	}
	return r.params.Text(key)
}

// Bool returns the boolean parameter with the specified key, defaulting to
// false.
func (r *Request) Bool(key string) bool {
	return ParseBool(r.String(key))
}

// Int returns the integer parameter with the specified key, defaulting to 0.
func (r *Request) Int(key string) int {
	value, err := strconv.Atoi(r.String(key))
	if err != nil {
		return 0
	}
	return value
}

// List returns the values of a list parameter: the character data of the
// container's children whose tag is the singular form (trailing character
// stripped) of the container's tag.
func (r *Request) List(key string) []string {
	if r.params == nil {
		return nil
	}
	container := r.params.Child(key)
	if container == nil {
		return nil
	}
	singular := singularName(key)
	var values []string
	for _, child := range container.Children {
		if child.Tag == singular {
			values = append(values, child.Data)
		}
	}
	return values
}

// singularName returns the tag that list containers use for their children:
// the container tag minus its trailing character (excludes/exclude,
// paths/path, events/event).
func singularName(name string) string {
	if name == "" {
		return name
	}
	return name[:len(name)-1]
}

// BuildRequest constructs a framed request body for the specified command
// type. The build callback, if non-nil, populates the params element.
func BuildRequest(commandType string, build func(params *Element)) []byte {
	root := NewElement("request")
	command := root.Add("command")
	command.AddText("type", commandType)
	if build != nil {
		build(command.Add("params"))
	}
	return root.Marshal()
}
