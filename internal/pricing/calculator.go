package pricing

import "github.com/shopspring/decimal"

// AddOn is a per-participant extra, such as canyoning shoe rental, charged at full rate.
type AddOn struct {
	Name     string
	UnitFee  decimal.Decimal
	Quantity int
}

// Quote is the result of pricing one booking. Amounts keep full precision;
// call Rounded before displaying or persisting.
type Quote struct {
	Participants     int
	UnitPrice        decimal.Decimal
	GroupRateApplied bool
	Base             decimal.Decimal
	DiscountAmount   decimal.Decimal
	Discounted       decimal.Decimal
	AddOnsTotal      decimal.Decimal
	Total            decimal.Decimal
	Discount         *Discount
}

// ComputeTotal prices a booking. It never fails: malformed input (no participants,
// negative prices, an unknown discount kind) yields a zero quote so callers can keep
// rendering while data is still loading.
func ComputeTotal(product Product, participants int, discount *Discount, addOns ...AddOn) Quote {
	if !wellFormed(product, participants, discount, addOns) {
		return zeroQuote(participants)
	}

	hasDiscount := discount != nil
	unit := UnitPrice(product, participants, hasDiscount)
	base := unit.Mul(decimal.NewFromInt(int64(participants)))

	discounted, discountAmount := ApplyDiscount(base, discount)

	extras := decimal.Zero
	for _, a := range addOns {
		if a.Quantity <= 0 {
			continue
		}
		extras = extras.Add(a.UnitFee.Mul(decimal.NewFromInt(int64(a.Quantity))))
	}

	q := Quote{
		Participants:     participants,
		UnitPrice:        unit,
		GroupRateApplied: groupRateApplies(product, participants, hasDiscount),
		Base:             base,
		DiscountAmount:   discountAmount,
		Discounted:       discounted,
		AddOnsTotal:      extras,
		Total:            discounted.Add(extras),
	}
	if hasDiscount {
		d := *discount
		q.Discount = &d
	}
	return q
}

// Rounded returns the quote with every money field rounded to cents.
func (q Quote) Rounded() Quote {
	q.UnitPrice = Round(q.UnitPrice)
	q.Base = Round(q.Base)
	q.DiscountAmount = Round(q.DiscountAmount)
	q.Discounted = Round(q.Discounted)
	q.AddOnsTotal = Round(q.AddOnsTotal)
	q.Total = Round(q.Total)
	return q
}

// Round rounds a money amount to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func wellFormed(product Product, participants int, discount *Discount, addOns []AddOn) bool {
	if participants <= 0 || product.UnitPriceIndividual.IsNegative() {
		return false
	}
	if product.GroupRate != nil && product.GroupRate.UnitPrice.IsNegative() {
		return false
	}
	if discount != nil && !discount.valid() {
		return false
	}
	for _, a := range addOns {
		if a.UnitFee.IsNegative() {
			return false
		}
	}
	return true
}

func zeroQuote(participants int) Quote {
	return Quote{
		Participants:   participants,
		UnitPrice:      decimal.Zero,
		Base:           decimal.Zero,
		DiscountAmount: decimal.Zero,
		Discounted:     decimal.Zero,
		AddOnsTotal:    decimal.Zero,
		Total:          decimal.Zero,
	}
}
