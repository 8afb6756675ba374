package middleware

import (
	"context"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const ctxAppSession contextKey = "app_session"

// AppSession is the per-request application session: who is calling, with which
// role, and which guide they act for. Handlers read it through the accessors
// below instead of re-parsing headers.
type AppSession struct {
	UserID     uuid.UUID
	Role       enums.UserRole
	GuideID    *uuid.UUID
	ResellerID *uuid.UUID
	AccessID   string
	// Impersonating is set when an admin acts as a guide.
	Impersonating bool
}

// WithAppSession stores s on ctx for downstream handlers.
func WithAppSession(ctx context.Context, s AppSession) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAppSession, s)
}

// AppSessionFromContext returns the session and whether the caller was authenticated.
func AppSessionFromContext(ctx context.Context) (AppSession, bool) {
	if ctx == nil {
		return AppSession{}, false
	}
	s, ok := ctx.Value(ctxAppSession).(AppSession)
	return s, ok
}

func UserIDFromContext(ctx context.Context) string {
	s, ok := AppSessionFromContext(ctx)
	if !ok {
		return ""
	}
	return s.UserID.String()
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	s, _ := AppSessionFromContext(ctx)
	return s.Role
}

// GuideIDFromContext returns the guide the caller acts for, if any.
func GuideIDFromContext(ctx context.Context) *uuid.UUID {
	s, _ := AppSessionFromContext(ctx)
	return s.GuideID
}
