// Package ondd implements the listener that consumes file delivery
// notifications from an external ONDD process over its local IPC socket.
package ondd

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/protocol"
)

const (
	// pollInterval is the delay between polls, applied both when idle and
	// after failures. The notification source being unreachable is never
	// fatal.
	pollInterval = 10 * time.Second
	// dialTimeout bounds connection establishment to the source.
	dialTimeout = 1 * time.Second
	// exchangeTimeout bounds a single request/response exchange.
	exchangeTimeout = 10 * time.Second
	// completeEventType is the notification type the listener forwards.
	completeEventType = "file_complete"
)

// Notification is a single event consumed from the notification source.
type Notification struct {
	// Type is the notification type.
	Type string
	// Path is the delivered path, relative to the receiving base.
	Path string
}

// Handler receives batches of file_complete notifications.
type Handler func([]Notification)

// Listener long-polls the notification source and dispatches filtered
// batches to its handler. It runs on its own goroutine.
type Listener struct {
	// socketPath is the IPC socket of the notification source.
	socketPath string
	// handler receives filtered notification batches.
	handler Handler
	// logger is the listener's logger.
	logger *logging.Logger
	// stop signals the poll loop to terminate.
	stop chan struct{}
	// done is closed when the poll loop has terminated.
	done chan struct{}
	// startOnce and stopOnce guard lifecycle transitions.
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewListener creates a listener for the specified socket path.
func NewListener(socketPath string, handler Handler, logger *logging.Logger) *Listener {
	return &Listener{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the poll loop.
func (l *Listener) Start() {
	l.startOnce.Do(func() {
		go l.run()
	})
}

// Stop terminates the poll loop and waits for it to exit.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
}

// run is the poll loop.
func (l *Listener) run() {
	defer close(l.done)
	for {
		notifications, err := l.fetch()
		if err != nil {
			l.logger.Warnf("unable to poll notification source: %v", err)
		} else {
			l.dispatch(notifications)
		}
		select {
		case <-l.stop:
			return
		case <-time.After(pollInterval):
		}
	}
}

// dispatch filters a polled batch down to file_complete notifications and
// hands it to the handler.
func (l *Listener) dispatch(notifications []Notification) {
	var complete []Notification
	for _, notification := range notifications {
		if notification.Type == completeEventType {
			complete = append(complete, notification)
		}
	}
	if len(complete) == 0 {
		return
	}
	l.logger.Debugf("fetched %d notifications", len(complete))
	l.handler(complete)
}

// fetch performs a single poll of the notification source.
func (l *Listener) fetch() ([]Notification, error) {
	connection, err := net.DialTimeout("unix", l.socketPath, dialTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "unable to reach notification source")
	}
	defer connection.Close()
	connection.SetDeadline(time.Now().Add(exchangeTimeout))

	// The exchange mirrors the daemon's own framing: NUL-terminated XML.
	if err := protocol.WriteMessage(connection, []byte("<get><events/></get>")); err != nil {
		return nil, err
	}
	message, err := protocol.ReadMessage(bufio.NewReader(connection))
	if err != nil {
		return nil, errors.Wrap(err, "unable to read notification response")
	}
	return parseNotifications(message)
}

// parseNotifications decodes a notification response document.
func parseNotifications(message []byte) ([]Notification, error) {
	root, err := protocol.Parse(message)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse notification response")
	}
	container := root
	if root.Tag != "events" {
		if container = root.Child("events"); container == nil {
			return nil, errors.Errorf("unexpected notification document: %s", root.Tag)
		}
	}
	var notifications []Notification
	for _, node := range container.Children {
		if node.Tag != "event" {
			continue
		}
		notifications = append(notifications, Notification{
			Type: node.Text("type"),
			Path: node.Text("path"),
		})
	}
	return notifications, nil
}
