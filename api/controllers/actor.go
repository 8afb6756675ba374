package controllers

import (
	"net/http"

	"github.com/angelmondragon/canyonbook-backend/api/middleware"
	"github.com/angelmondragon/canyonbook-backend/internal/bookings"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
)

// actorFromRequest turns the authenticated application session into the booking actor.
func actorFromRequest(r *http.Request) (bookings.Actor, error) {
	sess, ok := middleware.AppSessionFromContext(r.Context())
	if !ok || sess.UserID == uuid.Nil {
		return bookings.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return bookings.Actor{
		UserID:     sess.UserID,
		Role:       sess.Role,
		GuideID:    sess.GuideID,
		ResellerID: sess.ResellerID,
	}, nil
}

// guideScope returns the guide a listing should be narrowed to. Admins that are not
// impersonating see everything.
func guideScope(r *http.Request) *uuid.UUID {
	sess, ok := middleware.AppSessionFromContext(r.Context())
	if !ok {
		return nil
	}
	if sess.Role == enums.RoleAdmin && !sess.Impersonating {
		return nil
	}
	return sess.GuideID
}
