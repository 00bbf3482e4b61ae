package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"vdt.ai/dashboard/common/id"
	"vdt.ai/dashboard/core/config"
	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/store"
)

const SessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionExpired = errors.New("session expired")
)

// WorkOSClient is the slice of the WorkOS user management API the dashboard uses.
type WorkOSClient interface {
	GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (*url.URL, error)
	AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error)
}

type workosClient struct{}

// NewWorkOSClient configures the package-level WorkOS client with the API key.
func NewWorkOSClient(cfg config.WorkOSConfig) WorkOSClient {
	usermanagement.SetAPIKey(cfg.APIKey)
	return workosClient{}
}

func (workosClient) GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (*url.URL, error) {
	return usermanagement.GetAuthorizationURL(opts)
}

func (workosClient) AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
	return usermanagement.AuthenticateWithCode(ctx, opts)
}

type CallbackResult struct {
	User    *model.User
	Session *model.Session
}

type AuthURLOption func(*usermanagement.GetAuthorizationURLOpts)

func WithLoginHint(email string) AuthURLOption {
	return func(opts *usermanagement.GetAuthorizationURLOpts) {
		opts.LoginHint = email
	}
}

type AuthService interface {
	GetAuthorizationURL(state string, opts ...AuthURLOption) (string, error)
	HandleCallback(ctx context.Context, code string) (*CallbackResult, error)
	ValidateSession(ctx context.Context, sessionID string) (*model.User, error)
	GetSessionByID(ctx context.Context, sessionID string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	PurgeExpiredSessions(ctx context.Context) error
}

type authService struct {
	client       WorkOSClient
	userStore    store.UserStore
	sessionStore store.SessionStore
	cfg          config.WorkOSConfig
	now          func() time.Time
}

func NewAuthService(
	client WorkOSClient,
	userStore store.UserStore,
	sessionStore store.SessionStore,
	cfg config.WorkOSConfig,
) AuthService {
	return &authService{
		client:       client,
		userStore:    userStore,
		sessionStore: sessionStore,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *authService) GetAuthorizationURL(state string, opts ...AuthURLOption) (string, error) {
	params := usermanagement.GetAuthorizationURLOpts{
		ClientID:    s.cfg.ClientID,
		RedirectURI: s.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
	}
	for _, opt := range opts {
		opt(&params)
	}

	u, err := s.client.GetAuthorizationURL(params)
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return u.String(), nil
}

func (s *authService) HandleCallback(ctx context.Context, code string) (*CallbackResult, error) {
	authResponse, err := s.client.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: s.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to authenticate with code", "error", err)
		return nil, ErrInvalidCode
	}

	workosUser := authResponse.User
	user := &model.User{
		ID:       id.NewString(),
		Email:    workosUser.Email,
		Name:     buildUserName(workosUser),
		WorkOSID: &workosUser.ID,
	}

	if err := s.userStore.UpsertByWorkOSID(ctx, user); err != nil {
		slog.ErrorContext(ctx, "failed to upsert user",
			"error", err,
			"email", user.Email,
			"workos_id", workosUser.ID,
		)
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	session := &model.Session{
		ID:        id.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(SessionTTL),
	}

	if err := s.sessionStore.Create(ctx, session); err != nil {
		slog.ErrorContext(ctx, "failed to create session", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("creating session: %w", err)
	}

	slog.InfoContext(ctx, "user authenticated",
		"user_id", user.ID,
		"session_id", session.ID,
	)

	return &CallbackResult{User: user, Session: session}, nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.sessionStore.GetValid(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	user, err := s.userStore.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return user, nil
}

func (s *authService) GetSessionByID(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) error {
	if err := s.sessionStore.DeleteExpired(ctx); err != nil {
		return fmt.Errorf("deleting expired sessions: %w", err)
	}
	return nil
}

// RunSessionCleanup purges expired sessions once immediately and then on
// every tick of interval, until ctx is cancelled. Failures are logged and the
// loop keeps going.
func RunSessionCleanup(ctx context.Context, auth AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := auth.PurgeExpiredSessions(ctx); err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "session cleanup failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func buildUserName(user usermanagement.User) *string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return nil
	}
	return &name
}
