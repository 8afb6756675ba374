package pricing

import "github.com/shopspring/decimal"

// GroupRate is a reduced per-participant price unlocked at MinParticipants.
type GroupRate struct {
	MinParticipants int
	UnitPrice       decimal.Decimal
}

// Product is the slice of a catalog product the calculator needs.
type Product struct {
	UnitPriceIndividual decimal.Decimal
	GroupRate           *GroupRate
}

// UnitPrice returns the per-participant price for a booking of the given size.
// Group rates never combine with a promo, voucher, or manual discount.
func UnitPrice(product Product, participants int, discountActive bool) decimal.Decimal {
	if discountActive {
		return product.UnitPriceIndividual
	}
	if product.GroupRate != nil && participants >= product.GroupRate.MinParticipants {
		return product.GroupRate.UnitPrice
	}
	return product.UnitPriceIndividual
}

func groupRateApplies(product Product, participants int, discountActive bool) bool {
	return !discountActive && product.GroupRate != nil && participants >= product.GroupRate.MinParticipants
}
