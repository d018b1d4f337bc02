package service

import (
	"github.com/tgrieger/inkwell/internal/queue"
	"github.com/tgrieger/inkwell/internal/repository"
	"github.com/tgrieger/inkwell/internal/session"
	"github.com/tgrieger/inkwell/internal/token"
)

type Services struct {
	Auth *AuthService
	User *UserService
	Post *PostService
}

func NewServices(repos *repository.Repositories, sessions session.Store, signer *token.Signer, events queue.Publisher) *Services {
	return &Services{
		Auth: NewAuthService(repos.User, sessions, signer, events),
		User: NewUserService(repos.User, repos.Post, sessions, events),
		Post: NewPostService(repos.Post, events),
	}
}
