package products

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Category        string        `json:"category"`
	Description     *string       `json:"description,omitempty"`
	PriceIndividual string        `json:"priceIndividual"`
	PriceGroup      *GroupRateDTO `json:"priceGroup,omitempty"`
	MaxCapacity     int           `json:"maxCapacity"`
	Tags            []string      `json:"tags"`
	Active          bool          `json:"active"`
	AddOns          []AddOnDTO    `json:"addOns"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type GroupRateDTO struct {
	MinParticipants int    `json:"minParticipants"`
	Price           string `json:"price"`
}

type AddOnDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	UnitFee string    `json:"unitFee"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		Category:        string(p.Category),
		Description:     p.Description,
		PriceIndividual: p.PriceIndividual.StringFixed(2),
		MaxCapacity:     p.MaxCapacity,
		Tags:            append([]string{}, p.Tags...),
		Active:          p.Active,
		AddOns:          make([]AddOnDTO, 0, len(p.AddOns)),
		CreatedAt:       p.CreatedAt,
	}
	if p.HasGroupRate() {
		dto.PriceGroup = &GroupRateDTO{
			MinParticipants: *p.GroupMinParticipants,
			Price:           p.GroupPrice.StringFixed(2),
		}
	}
	for _, a := range p.AddOns {
		dto.AddOns = append(dto.AddOns, AddOnDTO{ID: a.ID, Name: a.Name, UnitFee: a.UnitFee.StringFixed(2)})
	}
	return dto
}

// RateTable maps a persisted product onto the calculator's rate table.
// A half-configured group rate is ignored.
func RateTable(p *models.Product) pricing.Product {
	if p == nil {
		return pricing.Product{}
	}
	rate := pricing.Product{UnitPriceIndividual: p.PriceIndividual}
	if p.HasGroupRate() {
		rate.GroupRate = &pricing.GroupRate{
			MinParticipants: *p.GroupMinParticipants,
			UnitPrice:       *p.GroupPrice,
		}
	}
	return rate
}

// AddOnCharge converts a catalog add-on into a priced line for quantity units.
func AddOnCharge(a models.ProductAddOn, quantity int) pricing.AddOn {
	return pricing.AddOn{Name: a.Name, UnitFee: a.UnitFee, Quantity: quantity}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
