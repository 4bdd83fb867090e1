package auth

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-landing/internal/logger"
	"ms-landing/internal/utils"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const identityKey contextKey = "identity"

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrAuthDisabled   = errors.New("authentication is not configured")
)

// Identity is the signed-in user as asserted by the identity provider.
type Identity struct {
	UID   string `json:"uid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider at issuer. With an empty audience
// the client ID check is skipped.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(verifierConfig(audience))}, nil
}

// NewStaticVerifier checks tokens against fixed public keys instead of the
// issuer's JWKS endpoint.
func NewStaticVerifier(issuer, audience string, keys ...crypto.PublicKey) *OIDCVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: keys}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keySet, verifierConfig(audience))}
}

func verifierConfig(audience string) *oidc.Config {
	return &oidc.Config{
		ClientID:          audience,
		SkipClientIDCheck: audience == "",
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	if claims.Sub == "" {
		return nil, ErrMissingSubject
	}

	return &Identity{UID: claims.Sub, Name: claims.Name, Email: claims.Email}, nil
}

// DisabledVerifier rejects every token. Used when no issuer is configured so
// protected routes stay closed.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(context.Context, string) (*Identity, error) {
	return nil, ErrAuthDisabled
}

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(verifier Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Faça login para continuar.")
				return
			}

			identity, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireEmail lets through identities whose email is in allowed (case
// insensitive) and answers 403 otherwise. It must run after Middleware.
func RequireEmail(allowed []string, log *logger.Logger) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, email := range allowed {
		set[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r.Context())
			if identity == nil || identity.Email == "" {
				utils.WriteError(w, http.StatusForbidden, "Acesso restrito.")
				return
			}
			if _, ok := set[strings.ToLower(identity.Email)]; !ok {
				log.LogSecurity("ADMIN_DENIED", fmt.Sprintf("%s %s by %s", r.Method, r.URL.Path, identity.UID))
				utils.WriteError(w, http.StatusForbidden, "Acesso restrito.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the identity the middleware stored, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityKey).(*Identity); ok {
		return identity
	}
	return nil
}
