// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/signin"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	"github.com/dalemusser/loyaltyhub/internal/app/store/oauthstate"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL           = 10 * time.Minute
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type Handler struct {
	Identities identity.Provider
	States     *oauthstate.Store
	Finisher   *signin.Finisher
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	OAuth       *oauth2.Config
	UserInfoURL string
}

// NewHandler builds the Google sign-in handler. An empty clientID leaves
// the handler unconfigured; its routes then answer 404.
func NewHandler(ids identity.Provider, states *oauthstate.Store, fin *signin.Finisher, audit *auditlog.Logger,
	clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	h := &Handler{
		Identities:  ids,
		States:      states,
		Finisher:    fin,
		AuditLog:    audit,
		Log:         logger,
		UserInfoURL: defaultUserInfoURL,
	}
	if clientID != "" && clientSecret != "" {
		h.OAuth = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return h
}

func (h *Handler) IsConfigured() bool { return h.OAuth != nil }

// ServeStart handles GET /auth/google/start and redirects to Google's
// consent screen. ?next= is honoured only for same-site paths.
func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		respond.Fail(w, http.StatusNotFound, "not_found", "Google sign-in is not configured.")
		return
	}

	state := base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	next := safeNext(r.URL.Query().Get("next"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.States.Issue(ctx, state, next, stateTTL); err != nil {
		h.Log.Error("authgoogle: save state failed", zap.Error(err))
		respond.Fail(w, http.StatusServiceUnavailable, "store", "Sign-in is temporarily unavailable.")
		return
	}

	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: it checks the state,
// exchanges the code, resolves the identity and signs the member in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		respond.Fail(w, http.StatusNotFound, "not_found", "Google sign-in is not configured.")
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.Log.Info("authgoogle: consent denied", zap.String("error", e))
		h.fail(w, r, "google_denied")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	next, ok, err := h.States.Consume(ctx, q.Get("state"))
	if err != nil {
		h.Log.Error("authgoogle: validate state failed", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	if !ok {
		h.Log.Warn("authgoogle: invalid or expired state")
		h.fail(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, r, "invalid_code")
		return
	}
	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		h.Log.Error("authgoogle: code exchange failed", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}
	info, err := h.fetchUserInfo(ctx, tok)
	if err != nil {
		h.Log.Error("authgoogle: fetch user info failed", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}
	if !info.EmailVerified || info.Email == "" {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "", info.Email, "google email not verified")
		h.fail(w, r, "email_unverified")
		return
	}

	ident, _, err := h.Identities.FindOrCreateFederated(ctx, models.ProviderGoogle, info.ID, info.Email, info.Name)
	if err != nil {
		h.Log.Error("authgoogle: resolve identity failed", zap.String("email", info.Email), zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	if _, err := h.Finisher.Finish(w, r, ident, models.ProviderGoogle); err != nil {
		if errors.Is(err, signin.ErrDisabled) {
			h.fail(w, r, "account_disabled")
			return
		}
		h.Log.Error("authgoogle: finish sign-in failed", zap.String("user_id", ident.ID), zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	if code != "account_disabled" {
		metrics.LoginAttempts.WithLabelValues(models.ProviderGoogle, metrics.OutcomeInvalid).Inc()
	}
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*googleUserInfo, error) {
	client := h.OAuth.Client(ctx, tok)
	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info: unexpected status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// safeNext keeps only absolute paths on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}
