// Package services contains the application services of the chat client.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
	"github.com/Grupo-Cloud/frontend/internal/client/models"
)

// Session is the sign-in state the auth service drives.
type Session interface {
	Login()
	Logout()
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange username/password for a token pair and store it.
//   - Register: create an account; does not sign in.
//   - Signup: Register followed by Login with the same credentials.
//   - Logout: drop the stored credential and end the session.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	Register(ctx context.Context, username, email string, password []byte) (*models.User, error)
	Signup(ctx context.Context, username, email string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error
}

type authService struct {
	client  Doer
	store   credentials.Store
	session Session
}

func NewAuthService(client Doer, store credentials.Store, session Session) AuthService {
	return &authService{client: client, store: store, session: session}
}

// Login posts the credentials form-encoded. A 401 or 400 from the backend
// becomes ErrInvalidCredentials.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	req := api.NewFormRequest(http.MethodPost, "/auth/login", url.Values{
		"username": {username},
		"password": {string(password)},
	})

	var pair models.TokenPair
	if err := doJSON(ctx, a.client, req, &pair); err != nil {
		var he *api.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusBadRequest) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("login error: %w", err)
	}

	cred := credentials.Credential{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := a.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("credential saving error: %w", err)
	}
	a.session.Login()
	return nil
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte) (*models.User, error) {
	req, err := api.NewJSONRequest(http.MethodPost, "/auth/register", models.UserCreate{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := doJSON(ctx, a.client, req, &u); err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return &u, nil
}

func (a *authService) Signup(ctx context.Context, username, email string, password []byte) (*models.User, error) {
	u, err := a.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.Login(ctx, username, password); err != nil {
		return u, err
	}
	return u, nil
}

// Logout always ends the session, even if wiping the durable token fails.
func (a *authService) Logout(ctx context.Context) error {
	err := a.store.Clear(ctx)
	a.session.Logout()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
