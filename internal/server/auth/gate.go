package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/D-Abramoc/chatrelay/internal/common"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

// CookieName is the single fixed cookie holding the session token. It is set
// by the login handler and read back by the gate on every request.
const CookieName = "users_access_token"

// QueryParamName is the fallback credential source, honoured because
// connection-upgrade requests commonly cannot set custom headers.
const QueryParamName = "token"

// Principal is the resolved identity of an authenticated actor. It lives only
// for the duration of a request or connection and is never persisted.
type Principal struct {
	UserID    int64
	ExpiresAt time.Time
}

// UserFinder resolves a user id against the persistence store.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Gate authorizes incoming requests and connection upgrades. It is a pure
// function of the request, the clock and the user store: no side effects.
type Gate struct {
	secret []byte
	users  UserFinder
}

func NewGate(secretKey string, users UserFinder) *Gate {
	return &Gate{secret: []byte(secretKey), users: users}
}

// CredentialFromRequest extracts the session token, trying the named cookie
// first and the query parameter second. Returns common.ErrCredentialMissing
// when neither is present.
func CredentialFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if token := r.URL.Query().Get(QueryParamName); token != "" {
		return token, nil
	}
	return "", common.ErrCredentialMissing
}

// Validate verifies a raw token and resolves its subject against the user
// store. A well-formed token whose subject matches no user fails with
// common.ErrUnknownSubject.
func (g *Gate) Validate(ctx context.Context, token string) (Principal, error) {
	userID, expiresAt, err := ParseToken(token, g.secret)
	if err != nil {
		return Principal{}, err
	}

	if _, err := g.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Principal{}, common.ErrUnknownSubject
		}
		return Principal{}, common.ErrorInternal
	}

	return Principal{UserID: userID, ExpiresAt: expiresAt}, nil
}

// Authorize resolves the request's credential to a Principal. It is used
// identically by the plain HTTP path and the connection-upgrade path; only
// the error rendering differs between the two.
func (g *Gate) Authorize(r *http.Request) (Principal, error) {
	token, err := CredentialFromRequest(r)
	if err != nil {
		return Principal{}, err
	}
	return g.Validate(r.Context(), token)
}
