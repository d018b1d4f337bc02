package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tgrieger/inkwell/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByAuthor(ctx context.Context, authorID uuid.UUID) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Repositories struct {
	User UserRepository
	Post PostRepository
}
