package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/domain"
	"github.com/tgrieger/inkwell/internal/queue"
	"github.com/tgrieger/inkwell/internal/repository"
	"github.com/tgrieger/inkwell/internal/session"
	"gorm.io/gorm"
)

type UserService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	sessions session.Store
	events   queue.Publisher
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository, sessions session.Store, events queue.Publisher) *UserService {
	return &UserService{
		users:    users,
		posts:    posts,
		sessions: sessions,
		events:   events,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type UpdateUserInput struct {
	Name string
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete soft-deletes the user and their posts, closes the active
// session and announces the deletion. The rows stay in place until the
// purge job removes them after the retention window.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.posts.DeleteByAuthor(ctx, user.ID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user", user.ID).Warn("delete session")
	}

	event := domain.NewEvent(domain.EventUserDeleted, user.ID)
	event.Email = user.Email
	event.Name = user.Name
	if err := s.events.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("event", event.Type).Warn("publish event")
	}

	return nil
}
