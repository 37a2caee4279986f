// Package client implements a Go client for the daemon's wire protocol. It
// backs the CLI query subcommands and the end-to-end tests.
package client

import (
	"bufio"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/protocol"
)

const (
	// dialTimeout bounds connection establishment to the daemon.
	dialTimeout = 1 * time.Second
)

// Client issues commands to a running daemon over its Unix domain socket.
// Each command uses its own connection, mirroring the server's
// one-request-per-connection contract.
type Client struct {
	// socketPath is the daemon's socket path.
	socketPath string
}

// New creates a client for the daemon listening at the specified socket
// path.
func New(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// send transmits a framed request without awaiting a response. Used for
// asynchronous commands.
func (c *Client) send(request []byte) error {
	connection, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return errors.Wrap(err, "unable to connect to daemon")
	}
	defer connection.Close()
	return protocol.WriteMessage(connection, request)
}

// exchange transmits a framed request and parses the framed response.
func (c *Client) exchange(request []byte) (*protocol.Response, error) {
	connection, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to daemon")
	}
	defer connection.Close()
	if err := protocol.WriteMessage(connection, request); err != nil {
		return nil, err
	}
	message, err := protocol.ReadMessage(bufio.NewReader(connection))
	if err != nil {
		return nil, errors.Wrap(err, "unable to read response")
	}
	return protocol.ParseResponse(message)
}

// command performs a simple success/error command with the specified
// parameters.
func (c *Client) command(commandType string, build func(params *protocol.Element)) error {
	response, err := c.exchange(protocol.BuildRequest(commandType, build))
	if err != nil {
		return err
	}
	if !response.Success() {
		if message := response.Error(); message != "" {
			return errors.New(message)
		}
		return errors.Errorf("%s failed", commandType)
	}
	return nil
}

// parseListing decodes base-path, dirs, and files fields from a listing
// response.
func parseListing(params *protocol.Node) (string, []*fs.Object, error) {
	if params == nil {
		return "", nil, errors.New("response carries no params")
	}
	basePath := params.Text("base-path")
	var objects []*fs.Object
	for _, containerTag := range []string{"dirs", "files"} {
		container := params.Child(containerTag)
		if container == nil {
			continue
		}
		for _, node := range container.Children {
			if node.Tag != "dir" && node.Tag != "file" {
				continue
			}
			object, err := protocol.ObjectFromNode(basePath, node)
			if err != nil {
				return "", nil, err
			}
			objects = append(objects, object)
		}
	}
	return basePath, objects, nil
}

// ListDir returns the indexed listing of the specified directory.
func (c *Client) ListDir(path string) (string, []*fs.Object, error) {
	response, err := c.exchange(protocol.BuildRequest(protocol.CommandListDir, func(params *protocol.Element) {
		params.AddText("path", path)
	}))
	if err != nil {
		return "", nil, err
	}
	if !response.Success() {
		return "", nil, errors.Errorf("no such directory: %s", path)
	}
	return parseListing(response.Params())
}

// Search queries the index. It returns whether the query itself matched an
// indexed directory, along with the base path and results.
func (c *Client) Search(query string, wholeWords bool, excludes []string) (bool, string, []*fs.Object, error) {
	response, err := c.exchange(protocol.BuildRequest(protocol.CommandSearch, func(params *protocol.Element) {
		params.AddText("query", query)
		params.AddBool("whole_words", wholeWords)
		container := params.Add("excludes")
		for _, exclude := range excludes {
			container.AddText("exclude", exclude)
		}
	}))
	if err != nil {
		return false, "", nil, err
	}
	if !response.Success() {
		return false, "", nil, errors.New("search failed")
	}
	basePath, objects, err := parseListing(response.Params())
	if err != nil {
		return false, "", nil, err
	}
	isMatch := protocol.ParseBool(response.Params().Text("is-match"))
	return isMatch, basePath, objects, nil
}

// GetFSO resolves a path through the index.
func (c *Client) GetFSO(path string) (*fs.Object, error) {
	response, err := c.exchange(protocol.BuildRequest(protocol.CommandGetFSO, func(params *protocol.Element) {
		params.AddText("path", path)
	}))
	if err != nil {
		return nil, err
	}
	if !response.Success() {
		return nil, errors.New(response.Error())
	}
	params := response.Params()
	if params == nil {
		return nil, errors.New("response carries no params")
	}
	basePath := params.Text("base-path")
	for _, node := range params.Children {
		if node.Tag == "dir" || node.Tag == "file" {
			return protocol.ObjectFromNode(basePath, node)
		}
	}
	return nil, errors.New("response carries no object")
}

// boolQuery performs a command returning a single boolean field.
func (c *Client) boolQuery(commandType, field string, build func(params *protocol.Element)) (bool, error) {
	response, err := c.exchange(protocol.BuildRequest(commandType, build))
	if err != nil {
		return false, err
	}
	if !response.Success() {
		return false, errors.Errorf("%s failed", commandType)
	}
	if response.Params() == nil {
		return false, errors.New("response carries no params")
	}
	return protocol.ParseBool(response.Params().Text(field)), nil
}

// Exists checks whether a path exists, consulting the filesystem when
// unindexed is true.
func (c *Client) Exists(path string, unindexed bool) (bool, error) {
	return c.boolQuery(protocol.CommandExists, "exists", func(params *protocol.Element) {
		params.AddText("path", path)
		params.AddBool("unindexed", unindexed)
	})
}

// IsDir checks whether a path is an indexed directory.
func (c *Client) IsDir(path string) (bool, error) {
	return c.boolQuery(protocol.CommandIsDir, "isdir", func(params *protocol.Element) {
		params.AddText("path", path)
	})
}

// IsFile checks whether a path is an indexed file.
func (c *Client) IsFile(path string) (bool, error) {
	return c.boolQuery(protocol.CommandIsFile, "isfile", func(params *protocol.Element) {
		params.AddText("path", path)
	})
}

// Remove removes a path from disk and from the index.
func (c *Client) Remove(path string) error {
	return c.command(protocol.CommandRemove, func(params *protocol.Element) {
		params.AddText("path", path)
	})
}

// Transfer moves an external source into the index.
func (c *Client) Transfer(src, dest string) error {
	return c.command(protocol.CommandTransfer, func(params *protocol.Element) {
		params.AddText("src", src)
		params.AddText("dest", dest)
	})
}

// GetChanges returns up to limit pending change events without acknowledging
// them.
func (c *Client) GetChanges(limit int) ([]*events.Event, error) {
	response, err := c.exchange(protocol.BuildRequest(protocol.CommandGetChanges, func(params *protocol.Element) {
		params.AddInt("limit", int64(limit))
	}))
	if err != nil {
		return nil, err
	}
	if !response.Success() {
		return nil, errors.New(response.Error())
	}
	params := response.Params()
	if params == nil {
		return nil, nil
	}
	container := params.Child("events")
	if container == nil {
		return nil, nil
	}
	var pending []*events.Event
	for _, node := range container.Children {
		if node.Tag != "event" {
			continue
		}
		event, err := protocol.EventFromNode(node)
		if err != nil {
			return nil, err
		}
		pending = append(pending, event)
	}
	return pending, nil
}

// ConfirmChanges acknowledges (drains) up to limit of the oldest pending
// change events.
func (c *Client) ConfirmChanges(limit int) error {
	return c.command(protocol.CommandConfirmChanges, func(params *protocol.Element) {
		params.AddInt("limit", int64(limit))
	})
}

// Refresh schedules a full reconcile.
func (c *Client) Refresh() error {
	return c.command(protocol.CommandRefresh, nil)
}

// RefreshPath schedules a re-scan rooted at the specified path.
func (c *Client) RefreshPath(path string) error {
	return c.command(protocol.CommandRefreshPath, func(params *protocol.Element) {
		params.AddText("path", path)
	})
}

// ListBasePaths returns the daemon's configured base paths.
func (c *Client) ListBasePaths() ([]string, error) {
	response, err := c.exchange(protocol.BuildRequest(protocol.CommandListBasePaths, nil))
	if err != nil {
		return nil, err
	}
	if !response.Success() {
		return nil, errors.New("list_base_paths failed")
	}
	params := response.Params()
	if params == nil {
		return nil, nil
	}
	container := params.Child("paths")
	if container == nil {
		return nil, nil
	}
	var basePaths []string
	for _, node := range container.Children {
		if node.Tag == "path" {
			basePaths = append(basePaths, node.Data)
		}
	}
	return basePaths, nil
}

// GetPathSize returns the total size of the files under the specified
// indexed path.
func (c *Client) GetPathSize(path string) (int64, error) {
	response, err := c.exchange(protocol.BuildRequest(protocol.CommandGetPathSize, func(params *protocol.Element) {
		params.AddText("path", path)
	}))
	if err != nil {
		return 0, err
	}
	if !response.Success() {
		return 0, errors.New(response.Error())
	}
	if response.Params() == nil {
		return 0, errors.New("response carries no params")
	}
	size, err := strconv.ParseInt(response.Params().Text("size"), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid size")
	}
	return size, nil
}

// Consolidate schedules moving the content of all other bases into the
// specified base.
func (c *Client) Consolidate(dest string) error {
	return c.command(protocol.CommandConsolidate, func(params *protocol.Element) {
		params.AddText("dest", dest)
	})
}

// Copy schedules an asynchronous recursive copy. No response is awaited.
func (c *Client) Copy(source, dest string) error {
	return c.send(protocol.BuildRequest(protocol.CommandCopy, func(params *protocol.Element) {
		params.AddText("source", source)
		params.AddText("dest", dest)
	}))
}
