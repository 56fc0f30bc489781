package services

import (
	"context"
	"net/http"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
	"github.com/Grupo-Cloud/frontend/internal/client/models"
)

type UserService interface {
	// Me returns the signed-in user with their documents and chats.
	Me(ctx context.Context) (*models.UserDetail, error)
}

type userService struct {
	client Doer
}

func NewUserService(client Doer) UserService {
	return &userService{client: client}
}

func (s *userService) Me(ctx context.Context) (*models.UserDetail, error) {
	var u models.UserDetail
	if err := doJSON(ctx, s.client, api.NewRequest(http.MethodGet, "/users/me"), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
