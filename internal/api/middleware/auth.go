package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mcoot/realmledger/internal/api/apierr"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/auth"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/credential"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the verified caller of a request. Exactly one of Session and
// Credential is set.
type Identity struct {
	Signer     model.SignerID
	Session    *auth.Session
	Credential *model.SessionCredential
}

// Request builds the authorization request for acting on owner
func (i *Identity) Request(owner model.OwnerID) authz.Request {
	return authz.Request{
		Owner:      owner,
		Signer:     i.Signer,
		Credential: i.Credential,
	}
}

// Auth creates authentication middleware accepting either a signer session
// token or a session credential
func Auth(authService *auth.Service, credentialService *credential.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			identity, err := authenticate(authService, credentialService, token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignerOnly rejects requests authenticated by a session credential
func SignerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if identity == nil || identity.Session == nil {
			apierr.WriteError(w, model.ErrInvalidAuth)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authenticate(authService *auth.Service, credentialService *credential.Service, token string) (*Identity, error) {
	session, err := authService.ValidateSession(token)
	if err == nil {
		return &Identity{Signer: session.Signer.ID, Session: session}, nil
	}
	if !errors.Is(err, auth.ErrInvalidSession) || !looksLikeJWT(token) || credentialService == nil {
		return nil, err
	}

	cred, err := credentialService.Verify(token)
	if err != nil {
		return nil, err
	}
	return &Identity{Signer: cred.Signer, Credential: cred}, nil
}

func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// EventSource clients cannot set headers
	return r.URL.Query().Get("access_token")
}

// GetIdentity returns the authenticated identity from the request context
func GetIdentity(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) *Identity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
