// Package backend adapts the Supabase backend (Postgres via PostgREST plus
// auth) to the data layer's Source interface.
//
// Row-level security runs server side; this package only shapes queries and
// mutations. It holds no state of its own beyond the HTTP client, so every
// method is safe for concurrent use.
package backend

import (
	"context"

	"github.com/google/uuid"
	"github.com/placemates/go-kit/keys"
	"github.com/placemates/go-kit/logger"
	"github.com/placemates/go-kit/model"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// Client is the Supabase-backed data source.
type Client struct {
	sb     *supabase.Client
	logger logger.Logger
}

// NewClient creates a backend client.
// A nil configuration is rejected: the project URL and API key have no
// usable defaults.
func NewClient(log logger.Logger, cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultConfig().Schema
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sb, err := supabase.NewClient(cfg.URL, cfg.APIKey, &supabase.ClientOptions{
		Schema: cfg.Schema,
	})
	if err != nil {
		return nil, ErrConnect(err)
	}

	log.Info("backend client initialized",
		zap.String("url", cfg.URL),
		zap.String("schema", cfg.Schema),
	)

	return &Client{
		sb:     sb,
		logger: log,
	}, nil
}

// AuthenticatedUser validates an access token against the auth service and
// returns the user id it belongs to.
func (c *Client) AuthenticatedUser(token string) (string, error) {
	user, err := c.sb.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", ErrAuth(err)
	}
	return user.ID.String(), nil
}

// Place fetches a single place record.
func (c *Client) Place(ctx context.Context, placeID string) (model.Place, error) {
	var rows []model.Place
	_, err := c.sb.From("places").
		Select("*", "", false).
		Eq("id", placeID).
		ExecuteTo(&rows)
	if err != nil {
		return model.Place{}, ErrQuery("places", err)
	}
	if len(rows) == 0 {
		return model.Place{}, ErrNotFound("place", placeID)
	}
	return rows[0], nil
}

// PlaceReviews fetches the reviews for a place, newest first, optionally
// narrowed to one group.
func (c *Client) PlaceReviews(ctx context.Context, placeID string, scope keys.Scope) ([]model.Review, error) {
	q := c.sb.From("reviews").
		Select("*", "", false).
		Eq("place_id", placeID)
	if !scope.IsAll() {
		q = q.Eq("group_id", scope.GroupID())
	}

	var rows []model.Review
	_, err := q.Order("created_at", &postgrest.OrderOpts{Ascending: false}).ExecuteTo(&rows)
	if err != nil {
		return nil, ErrQuery("reviews", err)
	}
	return rows, nil
}

// UserReviews fetches the reviews written by a user, newest first,
// optionally narrowed to one group.
func (c *Client) UserReviews(ctx context.Context, userID string, scope keys.Scope) ([]model.Review, error) {
	q := c.sb.From("reviews").
		Select("*", "", false).
		Eq("user_id", userID)
	if !scope.IsAll() {
		q = q.Eq("group_id", scope.GroupID())
	}

	var rows []model.Review
	_, err := q.Order("created_at", &postgrest.OrderOpts{Ascending: false}).ExecuteTo(&rows)
	if err != nil {
		return nil, ErrQuery("reviews", err)
	}
	return rows, nil
}

// UserGroups fetches the groups a user belongs to.
func (c *Client) UserGroups(ctx context.Context, userID string) ([]model.Group, error) {
	var memberships []model.GroupMember
	_, err := c.sb.From("group_members").
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&memberships)
	if err != nil {
		return nil, ErrQuery("group_members", err)
	}
	if len(memberships) == 0 {
		return []model.Group{}, nil
	}

	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.GroupID
	}

	var groups []model.Group
	_, err = c.sb.From("groups").
		Select("*", "", false).
		In("id", ids).
		ExecuteTo(&groups)
	if err != nil {
		return nil, ErrQuery("groups", err)
	}
	return groups, nil
}

// GroupMembers fetches the member list of a group.
func (c *Client) GroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	var rows []model.GroupMember
	_, err := c.sb.From("group_members").
		Select("*", "", false).
		Eq("group_id", groupID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, ErrQuery("group_members", err)
	}
	return rows, nil
}

// PlacesWithReviews fetches every place carrying at least one review in
// scope, paired with its client-side rating summary.
func (c *Client) PlacesWithReviews(ctx context.Context, scope keys.Scope) ([]model.PlaceWithReviews, error) {
	q := c.sb.From("reviews").Select("*", "", false)
	if !scope.IsAll() {
		q = q.Eq("group_id", scope.GroupID())
	}

	var reviews []model.Review
	if _, err := q.ExecuteTo(&reviews); err != nil {
		return nil, ErrQuery("reviews", err)
	}
	if len(reviews) == 0 {
		return []model.PlaceWithReviews{}, nil
	}

	byPlace := make(map[string][]model.Review)
	ids := make([]string, 0, len(byPlace))
	for _, r := range reviews {
		if _, seen := byPlace[r.PlaceID]; !seen {
			ids = append(ids, r.PlaceID)
		}
		byPlace[r.PlaceID] = append(byPlace[r.PlaceID], r)
	}

	var places []model.Place
	_, err := c.sb.From("places").
		Select("*", "", false).
		In("id", ids).
		ExecuteTo(&places)
	if err != nil {
		return nil, ErrQuery("places", err)
	}

	out := make([]model.PlaceWithReviews, 0, len(places))
	for _, p := range places {
		out = append(out, model.PlaceWithReviews{
			Place:   p,
			Summary: model.SummarizeReviews(p.ID, byPlace[p.ID]),
		})
	}
	return out, nil
}

// CreateReview inserts a review, assigning an id when the caller did not.
func (c *Client) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	var rows []model.Review
	_, err := c.sb.From("reviews").
		Insert(review, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return model.Review{}, ErrMutation("reviews", err)
	}
	if len(rows) == 0 {
		return review, nil
	}
	return rows[0], nil
}

// UpdateReview overwrites an existing review by id.
func (c *Client) UpdateReview(ctx context.Context, review model.Review) (model.Review, error) {
	var rows []model.Review
	_, err := c.sb.From("reviews").
		Update(review, "representation", "").
		Eq("id", review.ID).
		ExecuteTo(&rows)
	if err != nil {
		return model.Review{}, ErrMutation("reviews", err)
	}
	if len(rows) == 0 {
		return model.Review{}, ErrNotFound("review", review.ID)
	}
	return rows[0], nil
}

// DeleteReview removes a review by id.
func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	_, _, err := c.sb.From("reviews").
		Delete("", "").
		Eq("id", reviewID).
		Execute()
	if err != nil {
		return ErrMutation("reviews", err)
	}
	return nil
}

// CreateGroup inserts a group, assigning an id and invite code when absent,
// and enrolls the creator as its first member.
func (c *Client) CreateGroup(ctx context.Context, group model.Group) (model.Group, error) {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.InviteCode == "" {
		group.InviteCode = newInviteCode()
	}

	var rows []model.Group
	_, err := c.sb.From("groups").
		Insert(group, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return model.Group{}, ErrMutation("groups", err)
	}
	created := group
	if len(rows) > 0 {
		created = rows[0]
	}

	if err := c.AddGroupMember(ctx, model.GroupMember{
		GroupID: created.ID,
		UserID:  created.CreatedBy,
	}); err != nil {
		return model.Group{}, err
	}
	return created, nil
}

// DeleteGroup removes a group by id. Membership and review scoping rows are
// removed server side by cascade.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	_, _, err := c.sb.From("groups").
		Delete("", "").
		Eq("id", groupID).
		Execute()
	if err != nil {
		return ErrMutation("groups", err)
	}
	return nil
}

// AddGroupMember inserts a membership row.
func (c *Client) AddGroupMember(ctx context.Context, member model.GroupMember) error {
	_, _, err := c.sb.From("group_members").
		Insert(member, false, "", "", "").
		Execute()
	if err != nil {
		return ErrMutation("group_members", err)
	}
	return nil
}

// JoinGroupByCode resolves an invite code and enrolls the user in the
// matching group.
func (c *Client) JoinGroupByCode(ctx context.Context, userID, inviteCode string) (model.Group, error) {
	var groups []model.Group
	_, err := c.sb.From("groups").
		Select("*", "", false).
		Eq("invite_code", inviteCode).
		ExecuteTo(&groups)
	if err != nil {
		return model.Group{}, ErrQuery("groups", err)
	}
	if len(groups) == 0 {
		return model.Group{}, ErrNotFound("group invite", inviteCode)
	}

	group := groups[0]
	if err := c.AddGroupMember(ctx, model.GroupMember{
		GroupID: group.ID,
		UserID:  userID,
	}); err != nil {
		return model.Group{}, err
	}
	return group, nil
}

// newInviteCode derives a short shareable code from a fresh UUID.
func newInviteCode() string {
	return uuid.NewString()[:8]
}
