package controllers

import (
	"net/http"

	"github.com/angelmondragon/canyonbook-backend/api/middleware"
	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/api/validators"
	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type depositPolicyRequest struct {
	Kind   string          `json:"kind" validate:"required,oneof=none percentage fixed"`
	Amount decimal.Decimal `json:"amount"`
}

func GetGuide(svc guides.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "guide service unavailable"))
			return
		}

		id, err := ownGuide(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guide, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, guide)
	}
}

// UpdateGuideDepositPolicy changes the deposit rule applied to the guide's bookings.
func UpdateGuideDepositPolicy(svc guides.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "guide service unavailable"))
			return
		}

		id, err := ownGuide(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body depositPolicyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guide, err := svc.UpdateDepositPolicy(r.Context(), id, enums.DepositKind(body.Kind), body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, guide)
	}
}

// ownGuide resolves the guideID path param. Guides may only address their own profile.
func ownGuide(r *http.Request) (uuid.UUID, error) {
	id, err := validators.ParseUUIDParam(r, "guideID")
	if err != nil {
		return uuid.Nil, err
	}
	sess, ok := middleware.AppSessionFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if sess.Role == enums.RoleAdmin && !sess.Impersonating {
		return id, nil
	}
	if sess.GuideID == nil || *sess.GuideID != id {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "guide profile belongs to someone else")
	}
	return id, nil
}
