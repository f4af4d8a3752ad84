package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/studykit/studygate/internal/domain"
	"github.com/studykit/studygate/internal/session"
)

// roleKey is the context key for the authenticated role.
type roleKey struct{}

// Auth checks login passwords and validates bearer sessions. When no
// student password is configured, authentication is disabled: every
// request passes as an authenticated student. That mode exists for local
// deployments and is not a security boundary.
type Auth struct {
	enabled      bool
	profEnabled  bool
	passwordHash [sha256.Size]byte
	profHash     [sha256.Size]byte
	sessions     *session.Store
}

// NewAuth builds the authenticator. An empty password disables
// authentication; an empty profPassword only disables professor login.
func NewAuth(password, profPassword string, sessions *session.Store) *Auth {
	return &Auth{
		enabled:      password != "",
		profEnabled:  profPassword != "",
		passwordHash: sha256.Sum256([]byte(password)),
		profHash:     sha256.Sum256([]byte(profPassword)),
		sessions:     sessions,
	}
}

// Enabled reports whether bearer authentication is enforced.
func (a *Auth) Enabled() bool {
	return a.enabled
}

// CheckPassword verifies the student password in constant time. Always
// false when authentication is disabled: there is nothing to log into.
func (a *Auth) CheckPassword(candidate string) bool {
	if !a.enabled {
		return false
	}
	hash := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(hash[:], a.passwordHash[:]) == 1
}

// CheckProfPassword verifies the professor password in constant time.
func (a *Auth) CheckProfPassword(candidate string) bool {
	if !a.profEnabled {
		return false
	}
	hash := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(hash[:], a.profHash[:]) == 1
}

// RequireAuth validates the bearer token and injects the session role
// into the context. With authentication disabled it admits everyone as a
// student.
func RequireAuth(a *Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.enabled {
				ctx := context.WithValue(r.Context(), roleKey{}, session.RoleStudent)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := bearerToken(r)
			if token == "" {
				domain.WriteError(w, domain.ErrAuthRequired())
				return
			}

			role, ok := a.sessions.Lookup(token)
			if !ok {
				domain.WriteError(w, domain.ErrInvalidToken())
				return
			}

			ctx := context.WithValue(r.Context(), roleKey{}, role)
			AddLogField(ctx, "role", string(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRole retrieves the authenticated role from context.
func GetRole(ctx context.Context) (session.Role, bool) {
	role, ok := ctx.Value(roleKey{}).(session.Role)
	return role, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" for a missing header or any other scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
