package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/service"
)

const (
	stateCookieName = "dashboard_oauth_state"
	stateMaxAge     = 600
	sessionMaxAge   = int(service.SessionTTL / time.Second)
)

type AuthHandler struct {
	authService  service.AuthService
	dashboardURL string
	isProduction bool
}

func NewAuthHandler(authService service.AuthService, dashboardURL string, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		dashboardURL: dashboardURL,
		isProduction: isProduction,
	}
}

type GetAuthURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// GetAuthURL returns an AuthKit URL for clients that drive the redirect themselves.
func (h *AuthHandler) GetAuthURL(c *gin.Context) {
	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	var opts []service.AuthURLOption
	if loginHint := c.Query("login_hint"); loginHint != "" {
		opts = append(opts, service.WithLoginHint(loginHint))
	}

	authURL, err := h.authService.GetAuthorizationURL(state, opts...)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to get authorization URL", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get authorization URL"})
		return
	}

	c.JSON(http.StatusOK, GetAuthURLResponse{AuthorizationURL: authURL, State: state})
}

type ExchangeRequest struct {
	Code string `json:"code" binding:"required"`
}

type ExchangeResponse struct {
	User      *model.User `json:"user"`
	SessionID string      `json:"session_id"`
	ExpiresIn int         `json:"expires_in"`
}

// Exchange trades an authorization code for a local session.
func (h *AuthHandler) Exchange(c *gin.Context) {
	ctx := c.Request.Context()

	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result, err := h.authService.HandleCallback(ctx, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid authorization code"})
			return
		}
		slog.ErrorContext(ctx, "failed to exchange code", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to exchange code"})
		return
	}

	c.JSON(http.StatusOK, ExchangeResponse{
		User:      result.User,
		SessionID: result.Session.ID,
		ExpiresIn: sessionMaxAge,
	})
}

// Login redirects the browser to AuthKit.
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	authURL, err := h.authService.GetAuthorizationURL(state)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to get authorization URL", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	h.setCookie(c, stateCookieName, state, stateMaxAge)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback completes the browser flow started by Login.
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if errorParam := c.Query("error"); errorParam != "" {
		slog.WarnContext(ctx, "OAuth error", "error", errorParam, "description", c.Query("error_description"))
		h.redirectWithError(c, errorParam)
		return
	}

	storedState, err := c.Cookie(stateCookieName)
	if err != nil || c.Query("state") != storedState {
		slog.WarnContext(ctx, "state mismatch")
		h.redirectWithError(c, "invalid_state")
		return
	}
	h.setCookie(c, stateCookieName, "", -1)

	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, "no_code")
		return
	}

	result, err := h.authService.HandleCallback(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle callback", "error", err)
		if errors.Is(err, service.ErrInvalidCode) {
			h.redirectWithError(c, "invalid_code")
			return
		}
		h.redirectWithError(c, "callback_failed")
		return
	}

	h.setCookie(c, service.SessionCookie, result.Session.ID, sessionMaxAge)
	c.Redirect(http.StatusTemporaryRedirect, h.dashboardURL)
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

// Logout deletes the caller's session. The id comes from the body, the
// session header or the session cookie, in that order.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader(service.SessionHeader)
	}
	if sessionID == "" {
		sessionID, _ = c.Cookie(service.SessionCookie)
	}

	if sessionID != "" {
		if err := h.authService.Logout(ctx, sessionID); err != nil {
			slog.WarnContext(ctx, "failed to delete session", "error", err, "session_id", sessionID)
		}
	}

	h.setCookie(c, service.SessionCookie, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.dashboardURL+"?auth_error="+url.QueryEscape(code))
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetCookie(name, value, maxAge, "/", "", h.isProduction, true)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
