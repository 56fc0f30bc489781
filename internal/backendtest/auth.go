package backendtest

import (
	"fmt"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the user id as subject plus the epoch the token was minted
// in. ExpireAccessTokens moves the epoch so every older token is rejected.
type Claims struct {
	jwt.RegisteredClaims
	Epoch int `json:"epoch"`
}

func generateToken(userID string, epoch int, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			// keeps tokens minted within the same second distinct
			ID: mustRandHex(8),
		},
		Epoch: epoch,
	})

	return token.SignedString(secretKey)
}

func parseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func mustRandHex(n int) string {
	s, err := common.MakeRandHexString(n)
	if err != nil {
		panic(err)
	}
	return s
}

type refreshToken struct {
	userID  string
	expires time.Time
}

// issuePair mints an access token and a fresh refresh token. Callers hold s.mu.
func (s *Server) issuePair(userID string) (access, refresh string, err error) {
	access, err = generateToken(userID, s.epoch, s.secret, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh = mustRandHex(32)
	s.refreshTokens[refresh] = refreshToken{userID: userID, expires: time.Now().Add(s.refreshTTL)}
	return access, refresh, nil
}

// rotate consumes a refresh token and issues a new pair. Callers hold s.mu.
func (s *Server) rotate(token string) (access, refresh string, err error) {
	rt, ok := s.refreshTokens[token]
	if !ok {
		return "", "", common.ErrorNotFound
	}
	delete(s.refreshTokens, token)
	if rt.expires.Before(time.Now()) {
		return "", "", common.ErrRefreshTokenExpired
	}
	return s.issuePair(rt.userID)
}
