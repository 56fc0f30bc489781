package cli

import (
	"errors"
	"io"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
)

var (
	errUsage       = errors.New("usage")
	errNoChat      = errors.New("no chat selected, use 'open' or 'newchat' first")
	errNoDocuments = errors.New("upload at least one document before asking questions")
	errLoggedIn    = errors.New("already logged in, use 'logout' first")
	errNotFound    = errors.New("no such item, run the list command again")
)

// userMessage turns err into the line shown to the user.
func userMessage(err error) string {
	var he *api.HTTPError
	switch {
	case errors.Is(err, api.ErrAuthExpired):
		return "Your session has expired."
	case errors.Is(err, api.ErrUnavailable):
		return "Server unavailable, please check your connection and try again."
	case errors.Is(err, api.ErrServer):
		return "The server failed to handle the request, please try again later."
	case errors.Is(err, io.EOF):
		return "Input closed."
	case errors.As(err, &he):
		return "Error: " + he.Error()
	default:
		return "Error: " + err.Error()
	}
}
