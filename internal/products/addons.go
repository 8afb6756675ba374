package products

import (
	"fmt"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
)

// Selection is one add-on picked on a booking. A zero quantity means one per participant.
type Selection struct {
	AddOnID  uuid.UUID
	Quantity int
}

// Line is a resolved selection: the priced line plus the catalog row it came from.
type Line struct {
	AddOn  models.ProductAddOn
	Charge pricing.AddOn
}

// ResolveSelections matches selections against the product's active add-ons.
// Duplicate selections of the same add-on are merged.
func ResolveSelections(product *models.Product, selections []Selection, participants int) ([]Line, error) {
	if len(selections) == 0 {
		return nil, nil
	}
	if product == nil {
		return nil, errNilProduct
	}
	catalog := make(map[uuid.UUID]models.ProductAddOn, len(product.AddOns))
	for _, a := range product.AddOns {
		catalog[a.ID] = a
	}

	index := make(map[uuid.UUID]int, len(selections))
	lines := make([]Line, 0, len(selections))
	for _, sel := range selections {
		addOn, ok := catalog[sel.AddOnID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown add-on").
				WithDetails(map[string]any{"addOnId": sel.AddOnID})
		}
		qty := sel.Quantity
		if qty == 0 {
			qty = participants
		}
		if qty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity for add-on %s", addOn.Name))
		}
		if pos, seen := index[addOn.ID]; seen {
			lines[pos].Charge.Quantity += qty
			continue
		}
		index[addOn.ID] = len(lines)
		lines = append(lines, Line{AddOn: addOn, Charge: AddOnCharge(addOn, qty)})
	}
	return lines, nil
}

// Charges returns the priced side of lines.
func Charges(lines []Line) []pricing.AddOn {
	out := make([]pricing.AddOn, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Charge)
	}
	return out
}
