// Package data exposes the application's entity reads and writes.
//
// Reads go through the shared cache: each accessor builds its key via the
// keys package and delegates to cache.GetOrSet with an entity-specific TTL,
// so repeat requests inside the TTL window cost no network call. Writes go
// straight to the backend and then point-delete every derived key they can
// have staled, for both the concrete group scope and the "all" scope, since
// one write can affect either projection depending on how a concurrent
// reader is scoped.
//
// The service holds no entity state of its own: it is a stateless layer
// over the injected cache.Store and Source.
package data

import (
	"context"
	"time"

	"github.com/placemates/go-kit/cache"
	"github.com/placemates/go-kit/keys"
	"github.com/placemates/go-kit/logger"
	"github.com/placemates/go-kit/model"
	"go.uber.org/zap"
)

// Source is the backend the service reads through to and writes against.
// backend.Client implements it; tests substitute fakes.
type Source interface {
	Place(ctx context.Context, placeID string) (model.Place, error)
	PlaceReviews(ctx context.Context, placeID string, scope keys.Scope) ([]model.Review, error)
	UserReviews(ctx context.Context, userID string, scope keys.Scope) ([]model.Review, error)
	UserGroups(ctx context.Context, userID string) ([]model.Group, error)
	GroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error)
	PlacesWithReviews(ctx context.Context, scope keys.Scope) ([]model.PlaceWithReviews, error)

	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
	UpdateReview(ctx context.Context, review model.Review) (model.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	CreateGroup(ctx context.Context, group model.Group) (model.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	AddGroupMember(ctx context.Context, member model.GroupMember) error
	JoinGroupByCode(ctx context.Context, userID, inviteCode string) (model.Group, error)
}

// Service is the read-through data layer shared by all screens.
type Service struct {
	config *Config
	logger logger.Logger
	store  *cache.Store
	source Source
}

// NewService creates a Service over the given store and source.
// A nil configuration means defaults; zero-valued fields are filled in from
// DefaultConfig before validation.
func NewService(log logger.Logger, store *cache.Store, source Source, cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		defaults := DefaultConfig()
		if cfg.PlaceTTL == 0 {
			cfg.PlaceTTL = defaults.PlaceTTL
		}
		if cfg.ReviewsTTL == 0 {
			cfg.ReviewsTTL = defaults.ReviewsTTL
		}
		if cfg.GroupsTTL == 0 {
			cfg.GroupsTTL = defaults.GroupsTTL
		}
		if cfg.RefreshDelay == 0 {
			cfg.RefreshDelay = defaults.RefreshDelay
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || source == nil {
		return nil, ErrMissingDependency
	}

	return &Service{
		config: cfg,
		logger: log,
		store:  store,
		source: source,
	}, nil
}

// Place returns a single place record. Unlike the collection accessors
// there is no sensible empty fallback for a scalar, so fetch errors
// propagate to the caller.
func (s *Service) Place(ctx context.Context, placeID string) (model.Place, error) {
	return cache.GetOrSet(ctx, s.store, keys.Place(placeID), s.config.PlaceTTL,
		func(ctx context.Context) (model.Place, error) {
			return s.source.Place(ctx, placeID)
		})
}

// PlaceReviews returns the reviews for a place within scope. A fetch
// failure degrades to an empty list so a transient backend hiccup shows an
// empty screen instead of an error.
func (s *Service) PlaceReviews(ctx context.Context, placeID string, scope keys.Scope) []model.Review {
	return collection(ctx, s, keys.PlaceReviews(placeID, scope), s.config.ReviewsTTL,
		func(ctx context.Context) ([]model.Review, error) {
			return s.source.PlaceReviews(ctx, placeID, scope)
		})
}

// PlaceReviewSummary returns the derived rating aggregate for a place
// within scope. Scalar accessor: errors propagate.
func (s *Service) PlaceReviewSummary(ctx context.Context, placeID string, scope keys.Scope) (model.ReviewSummary, error) {
	return cache.GetOrSet(ctx, s.store, keys.PlaceReviewSummary(placeID, scope), s.config.ReviewsTTL,
		func(ctx context.Context) (model.ReviewSummary, error) {
			reviews, err := s.source.PlaceReviews(ctx, placeID, scope)
			if err != nil {
				return model.ReviewSummary{}, err
			}
			return model.SummarizeReviews(placeID, reviews), nil
		})
}

// UserReviews returns the reviews written by a user within scope, degrading
// to empty on fetch failure.
func (s *Service) UserReviews(ctx context.Context, userID string, scope keys.Scope) []model.Review {
	return collection(ctx, s, keys.UserReviews(userID, scope), s.config.ReviewsTTL,
		func(ctx context.Context) ([]model.Review, error) {
			return s.source.UserReviews(ctx, userID, scope)
		})
}

// UserGroups returns the groups a user belongs to, degrading to empty on
// fetch failure.
func (s *Service) UserGroups(ctx context.Context, userID string) []model.Group {
	return collection(ctx, s, keys.UserGroups(userID), s.config.GroupsTTL,
		func(ctx context.Context) ([]model.Group, error) {
			return s.source.UserGroups(ctx, userID)
		})
}

// GroupMembers returns a group's member list, degrading to empty on fetch
// failure.
func (s *Service) GroupMembers(ctx context.Context, groupID string) []model.GroupMember {
	return collection(ctx, s, keys.GroupMembers(groupID), s.config.GroupsTTL,
		func(ctx context.Context) ([]model.GroupMember, error) {
			return s.source.GroupMembers(ctx, groupID)
		})
}

// PlacesWithReviews returns every place carrying at least one review within
// scope, degrading to empty on fetch failure.
func (s *Service) PlacesWithReviews(ctx context.Context, scope keys.Scope) []model.PlaceWithReviews {
	return collection(ctx, s, keys.PlacesWithReviews(scope), s.config.ReviewsTTL,
		func(ctx context.Context) ([]model.PlaceWithReviews, error) {
			return s.source.PlacesWithReviews(ctx, scope)
		})
}

// Reset drops every cached entry. Called on sign-out so the next account
// never observes the previous account's data.
func (s *Service) Reset() {
	s.store.Clear()
}

// collection wraps GetOrSet with the swallow policy shared by the
// collection accessors: on fetch failure, log and return an empty slice.
func collection[T any](ctx context.Context, s *Service, key string, ttl time.Duration, fetch cache.FetchFunc[[]T]) []T {
	v, err := cache.GetOrSet(ctx, s.store, key, ttl, fetch)
	if err != nil {
		s.logger.Warn("fetch failed, returning empty collection",
			zap.String("key", key),
			zap.Error(err),
		)
		return []T{}
	}
	if v == nil {
		return []T{}
	}
	return v
}
