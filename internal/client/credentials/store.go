// Package credentials owns the access/refresh token pair.
//
// Every Save and Clear starts a new generation. A refresh captures the
// generation when it starts and writes its result through Rotate, which
// refuses the write if the generation has moved on. A logout that lands while
// a refresh is in flight therefore stays a logout.
package credentials

import (
	"context"
	"errors"
)

// ErrEmptyAccessToken is returned when saving a credential without an access token.
var ErrEmptyAccessToken = errors.New("empty access token")

// Credential is the token pair issued by the backend. RefreshToken may be
// empty: the durable store only keeps the access token across restarts.
type Credential struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether no access token is held.
func (c Credential) Empty() bool { return c.AccessToken == "" }

// Complete reports whether both tokens are present.
func (c Credential) Complete() bool { return c.AccessToken != "" && c.RefreshToken != "" }

// Store is safe for concurrent use.
//
// Contract:
//   - Load: current credential and its generation; a zero Credential when empty.
//   - Save: replace the credential (login) and start a new generation.
//   - Rotate: replace the credential only if gen is still current; an empty
//     RefreshToken keeps the stored one. Does not change the generation.
//   - Clear: drop the credential (logout) and start a new generation.
//   - ClearIf: Clear only if gen is still current.
type Store interface {
	Load(ctx context.Context) (Credential, uint64, error)
	Save(ctx context.Context, c Credential) error
	Rotate(ctx context.Context, gen uint64, c Credential) (bool, error)
	Clear(ctx context.Context) error
	ClearIf(ctx context.Context, gen uint64) (bool, error)
}
