// Package server implements the Unix-socket request/response server that
// exposes the indexer to local clients.
package server

import (
	"bufio"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/manager"
	"github.com/Othernet-Project/fsal/pkg/protocol"
)

// handler processes a single parsed request, returning the framed response
// body. Asynchronous handlers return nil and no response is written.
type handler func(*protocol.Request) []byte

// Server accepts connections on a Unix domain socket, reads one framed
// request per connection, and routes it through the command dispatch table.
type Server struct {
	// manager is the indexer the handlers operate on.
	manager *manager.Manager
	// handlers is the command dispatch table.
	handlers map[string]handler
	// listener is the bound socket listener.
	listener net.Listener
	// logger is the server's logger.
	logger *logging.Logger
	// connections tracks in-flight connection handlers.
	connections sync.WaitGroup
	// closed indicates that shutdown has started, silencing accept errors.
	closed chan struct{}
}

// New creates a server bound to the specified socket path. Any stale socket
// at that path is removed first.
func New(socketPath string, mgr *manager.Manager, logger *logging.Logger) (*Server, error) {
	// Remove any stale socket. The daemon lock guarantees that no other
	// instance can be serving on it.
	os.Remove(socketPath)

	// Bind the listener.
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to bind socket")
	}

	// Create the server and its dispatch table.
	result := &Server{
		manager:  mgr,
		listener: listener,
		logger:   logger,
		closed:   make(chan struct{}),
	}
	result.handlers = result.dispatchTable()
	return result, nil
}

// Serve accepts and processes connections until the server is closed.
func (s *Server) Serve() error {
	for {
		connection, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return nil
			default:
				return errors.Wrap(err, "unable to accept connection")
			}
		}
		s.connections.Add(1)
		go func() {
			defer s.connections.Done()
			s.handle(connection)
		}()
	}
}

// Close stops accepting connections and waits for in-flight requests to
// complete.
func (s *Server) Close() {
	close(s.closed)
	s.listener.Close()
	s.connections.Wait()
}

// handle processes a single connection: one framed request, at most one
// framed response.
func (s *Server) handle(connection net.Conn) {
	defer connection.Close()
	connectionID := uuid.NewString()

	// Read the framed request. A read error aborts this request only.
	message, err := protocol.ReadMessage(bufio.NewReader(connection))
	if err != nil {
		s.logger.Warnf("connection %s: unable to read request: %v", connectionID, err)
		return
	}

	// Parse it. Malformed requests close the connection without a response.
	request, err := protocol.ParseRequest(message)
	if err != nil {
		s.logger.Warnf("connection %s: malformed request: %v", connectionID, err)
		return
	}

	// Dispatch. Unknown command types yield no response.
	route, ok := s.handlers[request.Type]
	if !ok {
		s.logger.Warnf("connection %s: unknown command type: %s", connectionID, request.Type)
		return
	}
	s.logger.Debugf("connection %s: handling %s", connectionID, request.Type)
	response := route(request)
	if response == nil {
		return
	}
	if err := protocol.WriteMessage(connection, response); err != nil {
		s.logger.Warnf("connection %s: unable to write response: %v", connectionID, err)
	}
}
