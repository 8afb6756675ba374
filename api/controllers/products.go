package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/api/validators"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name                 string           `json:"name" validate:"required,max=120"`
	Category             string           `json:"category" validate:"required,oneof=canyoning via_ferrata climbing caving"`
	Description          *string          `json:"description" validate:"omitempty,max=2000"`
	PriceIndividual      decimal.Decimal  `json:"priceIndividual"`
	GroupMinParticipants *int             `json:"groupMinParticipants" validate:"omitempty,gt=1"`
	GroupPrice           *decimal.Decimal `json:"groupPrice"`
	MaxCapacity          int              `json:"maxCapacity" validate:"gt=0"`
	Tags                 []string         `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	AddOns               []addOnRequest   `json:"addOns" validate:"omitempty,max=20,dive"`
}

type addOnRequest struct {
	Name    string          `json:"name" validate:"required,max=80"`
	UnitFee decimal.Decimal `json:"unitFee"`
}

func (req createProductRequest) toInput() products.CreateProductInput {
	input := products.CreateProductInput{
		Name:                 strings.TrimSpace(req.Name),
		Category:             enums.ActivityCategory(req.Category),
		Description:          req.Description,
		PriceIndividual:      req.PriceIndividual,
		GroupMinParticipants: req.GroupMinParticipants,
		GroupPrice:           req.GroupPrice,
		MaxCapacity:          req.MaxCapacity,
		Tags:                 req.Tags,
	}
	for _, addOn := range req.AddOns {
		input.AddOns = append(input.AddOns, products.AddOnInput{Name: strings.TrimSpace(addOn.Name), UnitFee: addOn.UnitFee})
	}
	return input
}

// ListProducts serves the activity catalog. Inactive products are only listed on request.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		includeInactive, err := validators.ParseQueryBool(r, "includeInactive")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), products.ListInput{
			Category:        strings.TrimSpace(r.URL.Query().Get("category")),
			IncludeInactive: includeInactive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}
