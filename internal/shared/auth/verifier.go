package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrInvalidToken indicates the request carried a token the session store
	// does not recognize.
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionStore abstracts session/token persistence.
type SessionStore interface {
	Save(ctx context.Context, token string, customerID int64) error
	// Lookup resolves a token to a customer; ErrInvalidToken when unknown.
	Lookup(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

// Verifier resolves the optional customer identity from a request. It is
// constructed once at process start and handed to the HTTP handlers, instead
// of registering an ambient auth middleware.
type Verifier struct {
	sessions SessionStore
}

func NewVerifier(sessions SessionStore) *Verifier {
	return &Verifier{sessions: sessions}
}

// CustomerFromRequest returns the customer bound to the request's bearer
// token, or nil when the request is anonymous. A malformed or unknown token
// is an error, not an anonymous request.
func (v *Verifier) CustomerFromRequest(ctx context.Context, r *http.Request) (*int64, error) {
	if v == nil || v.sessions == nil {
		return nil, nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	customerID, err := v.sessions.Lookup(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return &customerID, nil
}
