package data

import (
	"context"
	"regexp"
	"time"

	"github.com/placemates/go-kit/cache"
	"github.com/placemates/go-kit/keys"
	"github.com/placemates/go-kit/model"
	"github.com/placemates/go-kit/realtime"
	"github.com/placemates/go-kit/routine"
	"go.uber.org/zap"
)

// Local-mutation triggers. Each mutation runs the write first; only a
// successful write invalidates, so a failed write leaves the cache intact.

// CreateReview writes a review and invalidates every derived key it stales.
func (s *Service) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	created, err := s.source.CreateReview(ctx, review)
	if err != nil {
		return model.Review{}, err
	}
	s.invalidateReviewKeys(created)
	return created, nil
}

// UpdateReview overwrites a review and invalidates its derived keys.
func (s *Service) UpdateReview(ctx context.Context, review model.Review) (model.Review, error) {
	updated, err := s.source.UpdateReview(ctx, review)
	if err != nil {
		return model.Review{}, err
	}
	s.invalidateReviewKeys(updated)
	return updated, nil
}

// DeleteReview removes a review. The caller passes the full review so the
// trigger knows which place, author and group projections to invalidate.
func (s *Service) DeleteReview(ctx context.Context, review model.Review) error {
	if err := s.source.DeleteReview(ctx, review.ID); err != nil {
		return err
	}
	s.invalidateReviewKeys(review)
	return nil
}

// CreateGroup writes a group and invalidates the creator's group list.
func (s *Service) CreateGroup(ctx context.Context, group model.Group) (model.Group, error) {
	created, err := s.source.CreateGroup(ctx, group)
	if err != nil {
		return model.Group{}, err
	}
	s.store.Invalidate(keys.UserGroups(created.CreatedBy))
	s.store.Invalidate(keys.GroupMembers(created.ID))
	return created, nil
}

// DeleteGroup removes a group and sweeps every key scoped to it. userID is
// the acting user, whose group list is the only membership view cached on
// this device.
func (s *Service) DeleteGroup(ctx context.Context, groupID, userID string) error {
	if err := s.source.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.invalidateGroupKeys(groupID, userID)
	return nil
}

// AddGroupMember enrolls a user and invalidates both membership views.
func (s *Service) AddGroupMember(ctx context.Context, member model.GroupMember) error {
	if err := s.source.AddGroupMember(ctx, member); err != nil {
		return err
	}
	s.store.Invalidate(keys.GroupMembers(member.GroupID))
	s.store.Invalidate(keys.UserGroups(member.UserID))
	return nil
}

// JoinGroupByCode resolves an invite code, enrolls the user and invalidates
// the membership views the join stales.
func (s *Service) JoinGroupByCode(ctx context.Context, userID, inviteCode string) (model.Group, error) {
	group, err := s.source.JoinGroupByCode(ctx, userID, inviteCode)
	if err != nil {
		return model.Group{}, err
	}
	s.store.Invalidate(keys.UserGroups(userID))
	s.store.Invalidate(keys.GroupMembers(group.ID))
	return group, nil
}

// invalidateReviewKeys point-deletes every projection a review write can
// stale: the place's review list and summary, the author's review list and
// the places-with-reviews list, each under both the review's group scope
// and the "all" scope.
func (s *Service) invalidateReviewKeys(review model.Review) {
	for _, scope := range scopesOf(review.GroupID) {
		s.store.Invalidate(keys.PlaceReviews(review.PlaceID, scope))
		s.store.Invalidate(keys.PlaceReviewSummary(review.PlaceID, scope))
		s.store.Invalidate(keys.UserReviews(review.UserID, scope))
		s.store.Invalidate(keys.PlacesWithReviews(scope))
	}

	s.logger.Debug("review keys invalidated",
		zap.String("place_id", review.PlaceID),
		zap.String("user_id", review.UserID),
		zap.String("group_id", review.GroupID),
	)
}

// invalidateGroupKeys removes the group's membership views and sweeps every
// key whose terminal scope segment names the group.
func (s *Service) invalidateGroupKeys(groupID, userID string) {
	s.store.Invalidate(keys.GroupMembers(groupID))
	if userID != "" {
		s.store.Invalidate(keys.UserGroups(userID))
	}
	s.store.InvalidatePattern(scopeSweep(groupID))

	s.logger.Debug("group keys invalidated", zap.String("group_id", groupID))
}

// scopeSweep matches every key ending in the group's scope segment. The
// anchor keeps a group id from matching mid-key occurrences of itself.
func scopeSweep(groupID string) cache.Pattern {
	return cache.Regex(regexp.MustCompile(":" + regexp.QuoteMeta(groupID) + "$"))
}

// scopesOf returns the scopes a write under groupID can affect: its own
// group view plus the ungrouped "all" view. An ungrouped write affects only
// the latter.
func scopesOf(groupID string) []keys.Scope {
	if groupID == "" {
		return []keys.Scope{keys.All()}
	}
	return []keys.Scope{keys.Group(groupID), keys.All()}
}

// Remote-change trigger.

// Watch registers the service's change handler for table on the dispatcher,
// narrowed by filter. The returned subscription belongs to the calling
// screen, which must unsubscribe on dismissal.
func (s *Service) Watch(d *realtime.Dispatcher, table string, filter realtime.Filter) *realtime.Subscription {
	return d.Subscribe(table, filter, s.HandleChange)
}

// HandleChange reacts to one pushed change event: it invalidates the keys
// the change stales, then re-runs the matching accessor after a short delay
// to absorb the backend's read-after-write lag. The delay is a pragmatic
// staleness tradeoff, not a correctness guarantee; the invalidation alone
// already forces the next read to repopulate.
func (s *Service) HandleChange(ctx context.Context, ev realtime.Event) {
	var refresh func(ctx context.Context)

	switch ev.Table {
	case realtime.TableReviews:
		refresh = s.handleReviewChange(ev)
	case realtime.TablePlaces:
		refresh = s.handlePlaceChange(ev)
	case realtime.TableGroupMembers:
		refresh = s.handleMembershipChange(ev)
	case realtime.TableGroups:
		refresh = s.handleGroupChange(ev)
	default:
		s.logger.Warn("change event for unwatched table", zap.String("table", ev.Table))
		return
	}

	if refresh != nil {
		s.scheduleRefresh(ctx, refresh)
	}
}

func (s *Service) handleReviewChange(ev realtime.Event) func(ctx context.Context) {
	f := ev.Filter
	if f.PlaceID == "" && f.UserID == "" {
		// The event does not identify the affected rows; sweep every
		// review-derived key. Summary keys carry their own segment.
		s.store.InvalidatePattern(cache.Substring("reviews"))
		s.store.InvalidatePattern(cache.Substring(":summary:"))
		return nil
	}

	s.invalidateReviewKeys(model.Review{
		PlaceID: f.PlaceID,
		UserID:  f.UserID,
		GroupID: f.GroupID,
	})

	if f.PlaceID == "" {
		return nil
	}
	scope := scopeOf(f.GroupID)
	return func(ctx context.Context) {
		s.PlaceReviews(ctx, f.PlaceID, scope)
	}
}

func (s *Service) handlePlaceChange(ev realtime.Event) func(ctx context.Context) {
	placeID := ev.Filter.PlaceID
	if placeID == "" {
		s.store.InvalidatePattern(cache.Substring("place"))
		return nil
	}

	s.store.Invalidate(keys.Place(placeID))
	s.store.InvalidatePattern(cache.Substring(keys.PlacePrefix(placeID)))
	s.store.InvalidatePattern(cache.Substring("places:reviews:"))

	if ev.Op == realtime.OpDelete {
		return nil
	}
	return func(ctx context.Context) {
		if _, err := s.Place(ctx, placeID); err != nil {
			s.logger.Warn("place refresh failed",
				zap.String("place_id", placeID),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) handleMembershipChange(ev realtime.Event) func(ctx context.Context) {
	f := ev.Filter
	if f.GroupID == "" && f.UserID == "" {
		s.store.InvalidatePattern(cache.Substring(":members"))
		s.store.InvalidatePattern(cache.Substring(":groups"))
		return nil
	}

	if f.GroupID != "" {
		s.store.Invalidate(keys.GroupMembers(f.GroupID))
	}
	if f.UserID != "" {
		s.store.Invalidate(keys.UserGroups(f.UserID))
	}

	if f.GroupID == "" {
		return nil
	}
	return func(ctx context.Context) {
		s.GroupMembers(ctx, f.GroupID)
	}
}

func (s *Service) handleGroupChange(ev realtime.Event) func(ctx context.Context) {
	groupID := ev.Filter.GroupID
	if groupID == "" {
		s.store.InvalidatePattern(cache.Substring(":members"))
		s.store.InvalidatePattern(cache.Substring(":groups"))
		return nil
	}

	if ev.Op == realtime.OpDelete {
		s.invalidateGroupKeys(groupID, ev.Filter.UserID)
		return nil
	}

	// Rename and similar metadata changes stale cached group lists.
	s.store.Invalidate(keys.GroupMembers(groupID))
	s.store.InvalidatePattern(cache.Substring(":groups"))
	return func(ctx context.Context) {
		s.GroupMembers(ctx, groupID)
	}
}

// scheduleRefresh re-runs an accessor after the configured delay on a
// panic-safe goroutine, abandoning the refresh if ctx ends first.
func (s *Service) scheduleRefresh(ctx context.Context, refresh func(ctx context.Context)) {
	routine.GoNamedWithContext(ctx, s.logger, "change-refresh", func(ctx context.Context) {
		timer := time.NewTimer(s.config.RefreshDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
			refresh(ctx)
		case <-ctx.Done():
		}
	})
}

func scopeOf(groupID string) keys.Scope {
	if groupID == "" {
		return keys.All()
	}
	return keys.Group(groupID)
}
