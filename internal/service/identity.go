package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/store"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "dashboard_session"
)

// IdentityResolver determines who is calling a procedure.
type IdentityResolver interface {
	Resolve(ctx context.Context, rc *rpc.Context) (*model.User, error)
}

// SessionResolver reads a session id from the request and resolves it
// through the auth service.
type SessionResolver struct {
	auth AuthService
}

func NewSessionResolver(auth AuthService) *SessionResolver {
	return &SessionResolver{auth: auth}
}

func (r *SessionResolver) Resolve(ctx context.Context, rc *rpc.Context) (*model.User, error) {
	sessionID := sessionIDFromContext(rc)
	if sessionID == "" {
		return nil, rpc.NewError(rpc.CodeUnauthorized, "not authenticated")
	}

	user, err := r.auth.ValidateSession(ctx, sessionID)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ErrUserNotFound):
		return nil, rpc.NewError(rpc.CodeUnauthorized, "session expired")
	case errors.Is(err, ErrSessionExpired):
		return nil, r.explainInvalidSession(ctx, sessionID)
	default:
		return nil, fmt.Errorf("resolving session: %w", err)
	}
}

// explainInvalidSession tells a session that once existed apart from an id
// that was never issued.
func (r *SessionResolver) explainInvalidSession(ctx context.Context, sessionID string) error {
	_, err := r.auth.GetSessionByID(ctx, sessionID)
	switch {
	case err == nil:
		return rpc.NewError(rpc.CodeUnauthorized, "session expired")
	case errors.Is(err, store.ErrNotFound):
		return rpc.NewError(rpc.CodeUnauthorized, "not authenticated")
	default:
		return fmt.Errorf("looking up session: %w", err)
	}
}

func sessionIDFromContext(rc *rpc.Context) string {
	if rc == nil || rc.Request == nil {
		return ""
	}
	if v := rc.Request.Header.Get(SessionHeader); v != "" {
		return v
	}
	if cookie, err := rc.Request.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Fixed identity returned by DemoResolver.
const (
	DemoUserID    = "demo-user"
	DemoUserEmail = "demo@example.com"
	DemoUserName  = "Demo User"
)

// DemoResolver returns the same placeholder administrator for every caller.
// It performs no authentication and must not be used in production.
type DemoResolver struct{}

func NewDemoResolver() DemoResolver {
	slog.Warn("identity resolver is the demo placeholder; every caller is treated as the demo admin",
		"user_id", DemoUserID)
	return DemoResolver{}
}

func (DemoResolver) Resolve(_ context.Context, _ *rpc.Context) (*model.User, error) {
	return DemoUser(), nil
}

func DemoUser() *model.User {
	name := DemoUserName
	role := model.UserRoleAdmin
	return &model.User{
		ID:    DemoUserID,
		Email: DemoUserEmail,
		Name:  &name,
		Role:  &role,
	}
}
