// Package keys is the single source of truth for cache-key shape.
//
// Read-through accessors and invalidation triggers both build keys through
// these functions, so the two sides can never drift apart on format. Keys
// are colon-delimited and end in a scope segment where a view can be
// narrowed to a group; an unscoped view serializes its scope as the literal
// "all", so the grouped and ungrouped projections of the same entity always
// live under distinct keys.
package keys

// Scope narrows a cached view to one group. The zero value means every
// group ("all"); it converts to the "all" sentinel only at key build time.
type Scope struct {
	groupID string
}

// Group returns the scope restricted to a single group.
func Group(groupID string) Scope {
	return Scope{groupID: groupID}
}

// All returns the unscoped view covering every group.
func All() Scope {
	return Scope{}
}

// IsAll reports whether the scope covers every group.
func (s Scope) IsAll() bool {
	return s.groupID == ""
}

// GroupID returns the group id, or the empty string for the unscoped view.
func (s Scope) GroupID() string {
	return s.groupID
}

// String serializes the scope as it appears in cache keys.
func (s Scope) String() string {
	if s.groupID == "" {
		return "all"
	}
	return s.groupID
}

// Place is the key for a single place record.
func Place(placeID string) string {
	return "place:" + placeID
}

// PlaceReviews is the key for the review list of a place within scope.
func PlaceReviews(placeID string, scope Scope) string {
	return "place:" + placeID + ":reviews:" + scope.String()
}

// PlaceReviewSummary is the key for the derived rating summary of a place
// within scope.
func PlaceReviewSummary(placeID string, scope Scope) string {
	return "place:" + placeID + ":summary:" + scope.String()
}

// UserReviews is the key for the review list written by a user within scope.
func UserReviews(userID string, scope Scope) string {
	return "user:" + userID + ":reviews:" + scope.String()
}

// UserGroups is the key for a user's group list.
func UserGroups(userID string) string {
	return "user:" + userID + ":groups"
}

// GroupMembers is the key for a group's member list.
func GroupMembers(groupID string) string {
	return "group:" + groupID + ":members"
}

// PlacesWithReviews is the key for the list of places carrying at least one
// review within scope.
func PlacesWithReviews(scope Scope) string {
	return "places:reviews:" + scope.String()
}

// PlacePrefix is the shared prefix of every key derived from one place,
// intended for pattern invalidation.
func PlacePrefix(placeID string) string {
	return "place:" + placeID + ":"
}
