package server

import (
	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/protocol"
)

// dispatchTable builds the command dispatch table. Every supported command
// type maps to exactly one handler.
func (s *Server) dispatchTable() map[string]handler {
	return map[string]handler{
		protocol.CommandListDir:        s.handleListDir,
		protocol.CommandExists:         s.handleExists,
		protocol.CommandIsDir:          s.handleIsDir,
		protocol.CommandIsFile:         s.handleIsFile,
		protocol.CommandRemove:         s.handleRemove,
		protocol.CommandSearch:         s.handleSearch,
		protocol.CommandGetFSO:         s.handleGetFSO,
		protocol.CommandTransfer:       s.handleTransfer,
		protocol.CommandGetChanges:     s.handleGetChanges,
		protocol.CommandConfirmChanges: s.handleConfirmChanges,
		protocol.CommandRefresh:        s.handleRefresh,
		protocol.CommandRefreshPath:    s.handleRefreshPath,
		protocol.CommandListBasePaths:  s.handleListBasePaths,
		protocol.CommandGetPathSize:    s.handleGetPathSize,
		protocol.CommandConsolidate:    s.handleConsolidate,
		protocol.CommandCopy:           s.handleCopy,
	}
}

// addListing appends base-path, dirs, and files fields for the specified
// objects.
func addListing(params *protocol.Element, basePath string, objects []*fs.Object) {
	params.AddText("base-path", basePath)
	dirs := params.Add("dirs")
	files := params.Add("files")
	for _, object := range objects {
		if object.IsDir() {
			protocol.AddDirNode(dirs, object)
		} else {
			protocol.AddFileNode(files, object)
		}
	}
}

// listingBase picks the base path reported for a listing: the base of the
// listed objects when uniform, the primary base otherwise.
func (s *Server) listingBase(objects []*fs.Object) string {
	if len(objects) > 0 {
		return objects[0].BasePath
	}
	return s.manager.BasePaths()[0]
}

func (s *Server) handleListDir(request *protocol.Request) []byte {
	ok, objects := s.manager.ListDir(request.String("path"))
	if !ok {
		return protocol.BuildFailure()
	}
	return protocol.BuildSuccess(func(params *protocol.Element) {
		addListing(params, s.listingBase(objects), objects)
	})
}

func (s *Server) handleExists(request *protocol.Request) []byte {
	exists := s.manager.Exists(request.String("path"), request.Bool("unindexed"))
	return protocol.BuildSuccess(func(params *protocol.Element) {
		params.AddBool("exists", exists)
	})
}

func (s *Server) handleIsDir(request *protocol.Request) []byte {
	isDir := s.manager.IsDir(request.String("path"))
	return protocol.BuildSuccess(func(params *protocol.Element) {
		params.AddBool("isdir", isDir)
	})
}

func (s *Server) handleIsFile(request *protocol.Request) []byte {
	isFile := s.manager.IsFile(request.String("path"))
	return protocol.BuildSuccess(func(params *protocol.Element) {
		params.AddBool("isfile", isFile)
	})
}

func (s *Server) handleRemove(request *protocol.Request) []byte {
	ok, message := s.manager.Remove(request.String("path"))
	if !ok {
		return protocol.BuildError(message)
	}
	return protocol.BuildSuccess(nil)
}

func (s *Server) handleSearch(request *protocol.Request) []byte {
	isMatch, objects := s.manager.Search(
		request.String("query"),
		request.Bool("whole_words"),
		request.List("excludes"),
	)
	return protocol.BuildSuccess(func(params *protocol.Element) {
		addListing(params, s.listingBase(objects), objects)
		params.AddBool("is-match", isMatch)
	})
}

func (s *Server) handleGetFSO(request *protocol.Request) []byte {
	object := s.manager.GetFSO(request.String("path"))
	if object == nil {
		return protocol.BuildError("Path not found: " + request.String("path"))
	}
	return protocol.BuildSuccess(func(params *protocol.Element) {
		params.AddText("base-path", object.BasePath)
		protocol.AddObjectNode(params, object)
	})
}

func (s *Server) handleTransfer(request *protocol.Request) []byte {
	ok, message := s.manager.Transfer(request.String("src"), request.String("dest"))
	if !ok {
		return protocol.BuildError(message)
	}
	return protocol.BuildSuccess(nil)
}

func (s *Server) handleGetChanges(request *protocol.Request) []byte {
	pending, err := s.manager.GetChanges(request.Int("limit"))
	if err != nil {
		return protocol.BuildError(err.Error())
	}
	return protocol.BuildSuccess(func(params *protocol.Element) {
		container := params.Add("events")
		for _, event := range pending {
			protocol.AddEventNode(container, event)
		}
	})
}

func (s *Server) handleConfirmChanges(request *protocol.Request) []byte {
	if err := s.manager.ConfirmChanges(request.Int("limit")); err != nil {
		return protocol.BuildError(err.Error())
	}
	return protocol.BuildSuccess(nil)
}

func (s *Server) handleRefresh(*protocol.Request) []byte {
	s.manager.Refresh()
	return protocol.BuildSuccess(nil)
}

func (s *Server) handleRefreshPath(request *protocol.Request) []byte {
	ok, message := s.manager.RefreshPath(request.String("path"))
	if !ok {
		return protocol.BuildError(message)
	}
	return protocol.BuildSuccess(nil)
}

func (s *Server) handleListBasePaths(*protocol.Request) []byte {
	return protocol.BuildSuccess(func(params *protocol.Element) {
		container := params.Add("paths")
		for _, basePath := range s.manager.BasePaths() {
			container.AddText("path", basePath)
		}
	})
}

func (s *Server) handleGetPathSize(request *protocol.Request) []byte {
	size, ok, message := s.manager.PathSize(request.String("path"))
	if !ok {
		return protocol.BuildError(message)
	}
	return protocol.BuildSuccess(func(params *protocol.Element) {
		params.AddInt("size", size)
	})
}

func (s *Server) handleConsolidate(request *protocol.Request) []byte {
	ok, message := s.manager.Consolidate(request.String("dest"))
	if !ok {
		return protocol.BuildError(message)
	}
	return protocol.BuildSuccess(nil)
}

// handleCopy is asynchronous: the copy is scheduled and no response is
// written.
func (s *Server) handleCopy(request *protocol.Request) []byte {
	s.manager.Copy(request.String("source"), request.String("dest"))
	return nil
}
