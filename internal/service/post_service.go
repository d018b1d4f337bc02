package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/domain"
	"github.com/tgrieger/inkwell/internal/queue"
	"github.com/tgrieger/inkwell/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PostService struct {
	posts  repository.PostRepository
	events queue.Publisher
}

func NewPostService(posts repository.PostRepository, events queue.Publisher) *PostService {
	return &PostService{posts: posts, events: events}
}

type CreatePostInput struct {
	Title string
	Body  string
	Tags  []string
}

func (s *PostService) Create(ctx context.Context, author domain.Principal, input CreatePostInput) (*domain.Post, error) {
	tags, err := json.Marshal(input.Tags)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  author.UserID,
		Title:     input.Title,
		Body:      input.Body,
		Tags:      datatypes.JSON(tags),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	event := domain.NewEvent(domain.EventPostPublished, author.UserID)
	event.PostID = post.ID
	event.PostTitle = post.Title
	if err := s.events.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("event", event.Type).Warn("publish event")
	}

	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	return s.posts.List(ctx, clampPageSize(limit), offset)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*domain.Post, error) {
	return s.posts.ListByAuthor(ctx, authorID, clampPageSize(limit), offset)
}

type UpdatePostInput struct {
	Title string
	Body  string
	Tags  []string
}

// Update replaces a post's content. Only the author may edit.
func (s *PostService) Update(ctx context.Context, caller domain.Principal, id uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != caller.UserID {
		return nil, domain.ErrForbidden
	}

	tags, err := json.Marshal(input.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = input.Title
	post.Body = input.Body
	post.Tags = datatypes.JSON(tags)
	post.UpdatedAt = time.Now()

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post. The author may delete their own posts; a
// moderating role may delete any post.
func (s *PostService) Delete(ctx context.Context, caller domain.Principal, id uuid.UUID) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != caller.UserID && !caller.Role.CanModerate() {
		return domain.ErrForbidden
	}

	return s.posts.Delete(ctx, id)
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
