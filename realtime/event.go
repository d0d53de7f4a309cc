// Package realtime delivers backend change notifications to the screens
// watching them.
//
// The backend pushes one event per changed row (table, operation, row
// filter). A Dispatcher buffers incoming events on an unbounded channel and
// fans each one out to the matching subscriptions on a single pump
// goroutine, so handlers observe events in arrival order. Subscriptions are
// owned by screens and must be torn down when the screen goes away.
package realtime

import "context"

// Operation is the kind of row change the backend reported.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Watched tables.
const (
	TablePlaces       = "places"
	TableReviews      = "reviews"
	TableGroups       = "groups"
	TableGroupMembers = "group_members"
)

// Filter identifies the rows an event touched, or narrows a subscription to
// the rows a screen cares about. Empty fields are wildcards.
type Filter struct {
	PlaceID string
	UserID  string
	GroupID string
	RowID   string
}

// Matches reports whether other satisfies every field set on f.
func (f Filter) Matches(other Filter) bool {
	if f.PlaceID != "" && f.PlaceID != other.PlaceID {
		return false
	}
	if f.UserID != "" && f.UserID != other.UserID {
		return false
	}
	if f.GroupID != "" && f.GroupID != other.GroupID {
		return false
	}
	if f.RowID != "" && f.RowID != other.RowID {
		return false
	}
	return true
}

// Event is one change notification from the backend's realtime channel.
type Event struct {
	Table  string
	Op     Operation
	Filter Filter
}

// Handler consumes a matched event. Handlers run on the dispatcher's pump
// goroutine; long work should be moved off it.
type Handler func(ctx context.Context, ev Event)
