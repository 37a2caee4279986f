// Package events defines the change events emitted by the indexer and the
// persistent queue that delivers them to clients.
package events

// Type identifies the kind of change an event records.
type Type string

const (
	// TypeCreated indicates that a path appeared.
	TypeCreated Type = "created"
	// TypeDeleted indicates that a path disappeared.
	TypeDeleted Type = "deleted"
	// TypeModified indicates that a path changed in place.
	TypeModified Type = "modified"
)

// Event is a persisted record of a create/modify/delete observation on a
// path. The ID is assigned on enqueue and preserves enqueue order.
type Event struct {
	// ID is the queue-assigned identifier. It is zero until the event has
	// been enqueued.
	ID int64
	// Type is the event kind.
	Type Type
	// Src is the relative path which generated the event.
	Src string
	// Dir indicates whether the source is a directory.
	Dir bool
}

// FileCreated constructs a file creation event.
func FileCreated(src string) *Event {
	return &Event{Type: TypeCreated, Src: src}
}

// FileDeleted constructs a file deletion event.
func FileDeleted(src string) *Event {
	return &Event{Type: TypeDeleted, Src: src}
}

// FileModified constructs a file modification event.
func FileModified(src string) *Event {
	return &Event{Type: TypeModified, Src: src}
}

// DirCreated constructs a directory creation event.
func DirCreated(src string) *Event {
	return &Event{Type: TypeCreated, Src: src, Dir: true}
}

// DirDeleted constructs a directory deletion event.
func DirDeleted(src string) *Event {
	return &Event{Type: TypeDeleted, Src: src, Dir: true}
}

// DirModified constructs a directory modification event.
func DirModified(src string) *Event {
	return &Event{Type: TypeModified, Src: src, Dir: true}
}

// Created constructs a creation event for the specified source.
func Created(src string, dir bool) *Event {
	return &Event{Type: TypeCreated, Src: src, Dir: dir}
}

// Deleted constructs a deletion event for the specified source.
func Deleted(src string, dir bool) *Event {
	return &Event{Type: TypeDeleted, Src: src, Dir: dir}
}

// Modified constructs a modification event for the specified source.
func Modified(src string, dir bool) *Event {
	return &Event{Type: TypeModified, Src: src, Dir: dir}
}
