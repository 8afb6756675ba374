package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/api/validators"
	"github.com/angelmondragon/canyonbook-backend/internal/vouchers"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type issueVoucherRequest struct {
	Code          string          `json:"code" validate:"omitempty,min=4,max=40"`
	Kind          string          `json:"kind" validate:"required,oneof=percentage fixed"`
	Amount        decimal.Decimal `json:"amount"`
	MaxUses       int             `json:"maxUses" validate:"gte=0"`
	ExpiresAt     *time.Time      `json:"expiresAt"`
	PurchaserName *string         `json:"purchaserName" validate:"omitempty,max=120"`
}

// VerifyVoucher reports whether a gift voucher code can be redeemed right now.
func VerifyVoucher(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "voucher code is required"))
			return
		}

		result, err := svc.Check(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func IssueVoucher(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		var body issueVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.Issue(r.Context(), vouchers.IssueInput{
			Code:          strings.TrimSpace(body.Code),
			Kind:          enums.DiscountKind(body.Kind),
			Amount:        body.Amount,
			MaxUses:       body.MaxUses,
			ExpiresAt:     body.ExpiresAt,
			PurchaserName: body.PurchaserName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, voucher)
	}
}
