package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/studykit/studygate/internal/config"
	"github.com/studykit/studygate/internal/domain"
	"github.com/studykit/studygate/internal/ratelimit"
	"github.com/studykit/studygate/internal/session"
	"github.com/studykit/studygate/internal/upstream"
	"github.com/studykit/studygate/internal/validate"
)

// passwordMaxLen bounds the login password field. Not configurable; real
// passwords are nowhere near this.
const passwordMaxLen = 256

// Gateway is the subset of the upstream client the handlers use.
type Gateway interface {
	Summarize(ctx context.Context, content string) (string, error)
	Flashcards(ctx context.Context, content string) ([]upstream.Flashcard, error)
	Synthesize(ctx context.Context, text string) (string, error)
}

// Handler holds the dependencies of every API endpoint.
type Handler struct {
	cfg      *config.Config
	auth     *Auth
	sessions *session.Store
	limiter  *ratelimit.Limiter
	gateway  Gateway
}

// NewHandler wires the endpoint handlers to their dependencies.
func NewHandler(cfg *config.Config, auth *Auth, sessions *session.Store, limiter *ratelimit.Limiter, gateway Gateway) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     auth,
		sessions: sessions,
		limiter:  limiter,
		gateway:  gateway,
	}
}

type loginResponse struct {
	Token       string `json:"token"`
	Role        string `json:"role"`
	ExpiresInMs int64  `json:"expiresInMs"`
}

type statusResponse struct {
	AuthEnabled   bool   `json:"authEnabled"`
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
}

type healthResponse struct {
	OK          bool            `json:"ok"`
	AuthEnabled bool            `json:"authEnabled"`
	RateLimit   rateLimitStatus `json:"rateLimit"`
}

type rateLimitStatus struct {
	WindowMs    int64 `json:"windowMs"`
	MaxRequests int   `json:"maxRequests"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type flashcardsResponse struct {
	Flashcards []upstream.Flashcard `json:"flashcards"`
}

type podcastResponse struct {
	AudioDataURL string `json:"audioDataUrl"`
}

// Login issues a student session for the correct base password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.RoleStudent, h.auth.CheckPassword)
}

// ProfLogin issues a professor session for the correct elevated password.
func (h *Handler) ProfLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.RoleProfessor, h.auth.CheckProfPassword)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, role session.Role, check func(string) bool) {
	body, err := decodeBody(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	password, err := validate.RequireText(body, "password", passwordMaxLen)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	if !check(password) {
		AddLogField(r.Context(), "login_failed", string(role))
		domain.WriteError(w, domain.ErrInvalidCredentials())
		return
	}

	token := h.sessions.Create(role)
	domain.WriteJSON(w, http.StatusOK, loginResponse{
		Token:       token,
		Role:        string(role),
		ExpiresInMs: h.sessions.TTL().Milliseconds(),
	})
}

// Logout removes the presented session, if any. Always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		h.sessions.Delete(token)
	}
	domain.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AuthStatus reports whether authentication is enabled and whether the
// presented token (if any) is valid.
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{AuthEnabled: h.auth.Enabled()}

	if !h.auth.Enabled() {
		resp.Authenticated = true
		resp.Role = string(session.RoleStudent)
	} else if token := bearerToken(r); token != "" {
		if role, ok := h.sessions.Lookup(token); ok {
			resp.Authenticated = true
			resp.Role = string(role)
		}
	}

	domain.WriteJSON(w, http.StatusOK, resp)
}

// Health reports liveness plus the effective rate-limit settings.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	domain.WriteJSON(w, http.StatusOK, healthResponse{
		OK:          true,
		AuthEnabled: h.auth.Enabled(),
		RateLimit: rateLimitStatus{
			WindowMs:    h.limiter.Window().Milliseconds(),
			MaxRequests: h.limiter.Max(),
		},
	})
}

// Summarize proxies a summarization request upstream.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	content, err := validate.RequireText(body, "content", h.cfg.Limits.ContentMax)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	summary, err := h.gateway.Summarize(r.Context(), content)
	if err != nil {
		AddError(r.Context(), err)
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

// Flashcards proxies a flashcard-generation request upstream.
func (h *Handler) Flashcards(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	content, err := validate.RequireText(body, "content", h.cfg.Limits.ContentMax)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	cards, err := h.gateway.Flashcards(r.Context(), content)
	if err != nil {
		AddError(r.Context(), err)
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, flashcardsResponse{Flashcards: cards})
}

// Podcast proxies a speech-synthesis request upstream and returns the
// audio inline as a data URL.
func (h *Handler) Podcast(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	text, err := validate.RequireText(body, "text", h.cfg.Limits.TextMax)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	audioDataURL, err := h.gateway.Synthesize(r.Context(), text)
	if err != nil {
		AddError(r.Context(), err)
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, podcastResponse{AudioDataURL: audioDataURL})
}

// NotFound keeps unknown API paths on the uniform error shape.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	domain.WriteError(w, domain.ErrNotFound())
}

// decodeBody parses the request body as a JSON value. Syntactically
// invalid JSON is INVALID_JSON regardless of endpoint; a syntactically
// valid non-object (array, scalar) decodes to a nil map, which the
// validator rejects as INVALID_INPUT.
func decodeBody(r *http.Request) (map[string]any, error) {
	var raw any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, domain.ErrInvalidJSON()
	}
	obj, _ := raw.(map[string]any)
	return obj, nil
}
