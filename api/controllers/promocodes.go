package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/api/validators"
	"github.com/angelmondragon/canyonbook-backend/internal/promocodes"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createPromoCodeRequest struct {
	Code       string          `json:"code" validate:"required,min=3,max=40"`
	GuideID    *uuid.UUID      `json:"guideId"`
	Kind       string          `json:"kind" validate:"required,oneof=percentage fixed"`
	Amount     decimal.Decimal `json:"amount"`
	ValidFrom  *time.Time      `json:"validFrom"`
	ValidUntil *time.Time      `json:"validUntil"`
}

// ListPromoCodes returns the promo codes the caller's booking form may offer.
func ListPromoCodes(svc promocodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo code service unavailable"))
			return
		}

		guideID := guideScope(r)
		if guideID == nil {
			var err error
			if guideID, err = validators.ParseQueryUUID(r, "guideId"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		list, err := svc.ListActive(r.Context(), guideID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreatePromoCode(svc promocodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo code service unavailable"))
			return
		}

		var body createPromoCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Guides can only create codes for themselves.
		guideID := body.GuideID
		if scoped := guideScope(r); scoped != nil {
			guideID = scoped
		}

		promo, err := svc.Create(r.Context(), promocodes.CreateInput{
			Code:       body.Code,
			GuideID:    guideID,
			Kind:       enums.DiscountKind(body.Kind),
			Amount:     body.Amount,
			ValidFrom:  body.ValidFrom,
			ValidUntil: body.ValidUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, promo)
	}
}
