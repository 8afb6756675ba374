package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/api/validators"
	"github.com/angelmondragon/canyonbook-backend/internal/bookings"
	"github.com/angelmondragon/canyonbook-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/pagination"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	GuideID   *uuid.UUID `json:"guideId"`
	StartsAt  time.Time  `json:"startsAt" validate:"required"`
	Capacity  int        `json:"capacity" validate:"gt=0"`
	Notes     *string    `json:"notes" validate:"omitempty,max=2000"`
}

// ListSessions lists scheduled sessions in a date window. Guides only see their own.
func ListSessions(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sessions.ListInput{
			From:    from,
			To:      to,
			GuideID: guideScope(r),
			Params:  pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")},
		}
		if input.GuideID == nil {
			if input.GuideID, err = validators.ParseQueryUUID(r, "guideId"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CreateSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		var body createSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guideID := body.GuideID
		if scoped := guideScope(r); scoped != nil {
			guideID = scoped
		}

		session, err := svc.Create(r.Context(), sessions.CreateInput{
			ProductID: body.ProductID,
			GuideID:   guideID,
			StartsAt:  body.StartsAt,
			Capacity:  body.Capacity,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, session)
	}
}

// ListSessionBookings is the bulk view of one session: every booking plus totals.
func ListSessionBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ListBySession(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
