package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/internal/policy"
	"github.com/circlesapp/circles-backend/pkg/db/models"
	pkgerrors "github.com/circlesapp/circles-backend/pkg/errors"
	"github.com/circlesapp/circles-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type circleFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Circle, error)
}

// CreatePostInput captures the fields for a new post.
type CreatePostInput struct {
	CircleID uuid.UUID
	Body     string
	ImageURL *string
}

// UpdatePostInput captures the mutable post fields; nil means unchanged.
type UpdatePostInput struct {
	Body     *string
	ImageURL *string
}

// Service exposes circle post operations.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, input CreatePostInput) (*PostDTO, error)
	ListVisible(ctx context.Context, actorID uuid.UUID, circleFilter *uuid.UUID, page pagination.Params) (*FeedPage, error)
	ListMine(ctx context.Context, actorID uuid.UUID) ([]PostDTO, error)
	Get(ctx context.Context, actorID, postID uuid.UUID) (*PostDTO, error)
	Update(ctx context.Context, actorID, postID uuid.UUID, input UpdatePostInput) (*PostDTO, error)
	Delete(ctx context.Context, actorID, postID uuid.UUID) error
}

type service struct {
	repo        Repository
	memberships memberships.Repository
	circles     circleFinder
}

// NewService builds a posts service with the provided repositories.
func NewService(repo Repository, membershipsRepo memberships.Repository, circles circleFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if circles == nil {
		return nil, fmt.Errorf("circle finder required")
	}
	return &service{
		repo:        repo,
		memberships: membershipsRepo,
		circles:     circles,
	}, nil
}

// Create publishes a post into the circle. The author must be a member.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreatePostInput) (*PostDTO, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "post body is required")
	}

	if _, err := s.circles.FindByID(ctx, input.CircleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "circle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load circle")
	}

	member, err := s.memberships.IsMember(ctx, actorID, input.CircleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle membership")
	}
	if !member {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this circle")
	}

	post, err := s.repo.Create(ctx, &models.Post{
		CircleID: input.CircleID,
		AuthorID: actorID,
		Body:     input.Body,
		ImageURL: input.ImageURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create post")
	}
	return FromModel(post), nil
}

// ListVisible returns a page of posts from the actor's circles, newest
// first. When a circle filter is provided and the actor is not a member of
// it, the result is an empty page rather than an error.
func (s *service) ListVisible(ctx context.Context, actorID uuid.UUID, circleFilter *uuid.UUID, page pagination.Params) (*FeedPage, error) {
	var circleIDs []uuid.UUID

	if circleFilter != nil {
		member, err := s.memberships.IsMember(ctx, actorID, *circleFilter)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle membership")
		}
		if !member {
			return &FeedPage{Posts: []PostDTO{}}, nil
		}
		circleIDs = []uuid.UUID{*circleFilter}
	} else {
		ids, err := s.memberships.ListUserCircleIDs(ctx, actorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user circles")
		}
		circleIDs = ids
	}

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(page.Limit)

	rows, err := s.repo.ListByCircleIDs(ctx, circleIDs, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}

	feed := &FeedPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		feed.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.PostedAt,
			ID:        last.ID,
		})
	}
	feed.Posts = fromModels(rows)
	return feed, nil
}

// ListMine returns the actor's authored posts regardless of whether they
// still belong to the circles the posts live in.
func (s *service) ListMine(ctx context.Context, actorID uuid.UUID) ([]PostDTO, error) {
	rows, err := s.repo.ListByAuthor(ctx, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list authored posts")
	}
	return fromModels(rows), nil
}

// Get returns the post to members of its circle.
func (s *service) Get(ctx context.Context, actorID, postID uuid.UUID) (*PostDTO, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ok, err := policy.CanViewPost(ctx, s.memberships, actorID, post.CircleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check circle membership")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this circle")
	}
	return FromModel(post), nil
}

// Update edits the post. Author only.
func (s *service) Update(ctx context.Context, actorID, postID uuid.UUID, input UpdatePostInput) (*PostDTO, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !policy.CanEditPost(actorID, post.AuthorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author may edit the post")
	}

	if input.Body != nil {
		if strings.TrimSpace(*input.Body) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "post body is required")
		}
		post.Body = *input.Body
	}
	if input.ImageURL != nil {
		post.ImageURL = input.ImageURL
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update post")
	}
	return FromModel(post), nil
}

// Delete removes the post. Author only.
func (s *service) Delete(ctx context.Context, actorID, postID uuid.UUID) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}

	if !policy.CanEditPost(actorID, post.AuthorID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the author may delete the post")
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete post")
	}
	return nil
}

func (s *service) loadPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post")
	}
	return post, nil
}
