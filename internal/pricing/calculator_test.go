package pricing

import (
	"math/rand"
	"testing"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	expected, err := decimal.NewFromString(want)
	require.NoError(t, err)
	assert.Truef(t, expected.Equal(got), "expected %s, got %s", want, got.String())
}

func canyonProduct() Product {
	return Product{
		UnitPriceIndividual: decimal.NewFromInt(50),
		GroupRate:           &GroupRate{MinParticipants: 5, UnitPrice: decimal.NewFromInt(40)},
	}
}

func TestComputeTotal_GroupRateWithoutDiscount(t *testing.T) {
	t.Parallel()

	q := ComputeTotal(canyonProduct(), 6, nil)

	assert.True(t, q.GroupRateApplied)
	assertDecimal(t, "40", q.UnitPrice)
	assertDecimal(t, "240", q.Total)
	assertDecimal(t, "0", q.DiscountAmount)
	assert.Nil(t, q.Discount)
}

func TestComputeTotal_PercentageVoucherSuppressesGroupRate(t *testing.T) {
	t.Parallel()

	voucher := GiftVoucher("gift10", enums.DiscountKindPercentage, decimal.NewFromInt(10))
	q := ComputeTotal(canyonProduct(), 6, &voucher)

	assert.False(t, q.GroupRateApplied)
	assertDecimal(t, "50", q.UnitPrice)
	assertDecimal(t, "300", q.Base)
	assertDecimal(t, "270", q.Total)
	assertDecimal(t, "30", q.DiscountAmount)
	require.NotNil(t, q.Discount)
	assert.Equal(t, "GIFT10", q.Discount.Code)
}

func TestComputeTotal_FixedDiscountClampsAtZero(t *testing.T) {
	t.Parallel()

	promo := PromoCode("BIG", enums.DiscountKindFixed, decimal.NewFromInt(200))
	q := ComputeTotal(canyonProduct(), 2, &promo)

	assertDecimal(t, "100", q.Base)
	assertDecimal(t, "0", q.Total)
	assertDecimal(t, "100", q.DiscountAmount)
}

func TestComputeTotal_PercentageAboveHundredClamps(t *testing.T) {
	t.Parallel()

	manual := ManualOverride(enums.DiscountKindPercentage, decimal.NewFromInt(150))
	q := ComputeTotal(canyonProduct(), 2, &manual)

	assertDecimal(t, "0", q.Total)
	assertDecimal(t, "100", q.DiscountAmount)
}

func TestComputeTotal_AddOnsAddedAfterDiscount(t *testing.T) {
	t.Parallel()

	promo := PromoCode("SPRING", enums.DiscountKindPercentage, decimal.NewFromInt(20))
	shoes := AddOn{Name: "shoe rental", UnitFee: decimal.NewFromInt(5), Quantity: 3}
	q := ComputeTotal(canyonProduct(), 4, &promo, shoes)

	assertDecimal(t, "200", q.Base)
	assertDecimal(t, "160", q.Discounted)
	assertDecimal(t, "40", q.DiscountAmount)
	assertDecimal(t, "15", q.AddOnsTotal)
	assertDecimal(t, "175", q.Total)
}

func TestComputeTotal_AddOnsSurviveFullDiscount(t *testing.T) {
	t.Parallel()

	promo := PromoCode("FREE", enums.DiscountKindFixed, decimal.NewFromInt(1000))
	shoes := AddOn{Name: "shoe rental", UnitFee: decimal.NewFromInt(5), Quantity: 2}
	q := ComputeTotal(canyonProduct(), 2, &promo, shoes)

	assertDecimal(t, "10", q.Total)
	assertDecimal(t, "100", q.DiscountAmount)
}

func TestComputeTotal_MalformedInputDegradesToZero(t *testing.T) {
	t.Parallel()

	negative := Product{UnitPriceIndividual: decimal.NewFromInt(-5)}
	badKind := Discount{Source: enums.DiscountModePromo, Kind: "bogo", Amount: decimal.NewFromInt(5)}
	negativeDiscount := PromoCode("NEG", enums.DiscountKindFixed, decimal.NewFromInt(-5))

	cases := map[string]Quote{
		"zero participants":     ComputeTotal(canyonProduct(), 0, nil),
		"negative participants": ComputeTotal(canyonProduct(), -3, nil),
		"missing price":         ComputeTotal(Product{}, 4, nil),
		"negative price":        ComputeTotal(negative, 4, nil),
		"unknown discount kind": ComputeTotal(canyonProduct(), 4, &badKind),
		"negative discount":     ComputeTotal(canyonProduct(), 4, &negativeDiscount),
	}
	for name, q := range cases {
		assert.Truef(t, q.Total.IsZero(), "%s: expected zero total, got %s", name, q.Total)
		assert.Truef(t, q.DiscountAmount.IsZero(), "%s: expected zero discount, got %s", name, q.DiscountAmount)
	}
}

func TestUnitPrice_GroupRateSuppressedWhileDiscountActive(t *testing.T) {
	t.Parallel()

	product := canyonProduct()
	for n := product.GroupRate.MinParticipants; n <= 40; n++ {
		assert.Truef(t, UnitPrice(product, n, true).Equal(product.UnitPriceIndividual), "n=%d", n)
		assert.Truef(t, UnitPrice(product, n, false).Equal(product.GroupRate.UnitPrice), "n=%d", n)
	}
	assert.True(t, UnitPrice(product, 4, false).Equal(product.UnitPriceIndividual))
}

func TestComputeTotal_NonNegativeForAnyFixedDiscount(t *testing.T) {
	t.Parallel()

	product := canyonProduct()
	for amount := 0; amount <= 1000; amount += 7 {
		d := PromoCode("X", enums.DiscountKindFixed, decimal.NewFromInt(int64(amount)))
		for n := 1; n <= 8; n++ {
			q := ComputeTotal(product, n, &d)
			require.Falsef(t, q.Total.IsNegative(), "amount=%d n=%d total=%s", amount, n, q.Total)
			require.Truef(t, q.DiscountAmount.LessThanOrEqual(q.Base), "amount=%d n=%d", amount, n)
			require.Truef(t, q.Base.Sub(q.DiscountAmount).Equal(q.Total), "amount=%d n=%d", amount, n)
		}
	}
}

func TestComputeTotal_Idempotent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	product := canyonProduct()
	for i := 0; i < 200; i++ {
		n := rng.Intn(12) + 1
		d := GiftVoucher("V", enums.DiscountKindPercentage, decimal.NewFromInt(int64(rng.Intn(100))))
		addOn := AddOn{Name: "helmet", UnitFee: decimal.RequireFromString("2.5"), Quantity: rng.Intn(n + 1)}

		first := ComputeTotal(product, n, &d, addOn)
		second := ComputeTotal(product, n, &d, addOn)
		require.True(t, first.Total.Equal(second.Total))
		require.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
		require.Equal(t, first.GroupRateApplied, second.GroupRateApplied)
	}
}

func TestComputeTotal_RoundsOnlyAtBoundary(t *testing.T) {
	t.Parallel()

	product := Product{UnitPriceIndividual: dec(t, "19.99")}
	d := PromoCode("AUTUMN", enums.DiscountKindPercentage, dec(t, "12.5"))

	rawSum := decimal.Zero
	perStepSum := decimal.Zero
	for n := 1; n <= 12; n++ {
		q := ComputeTotal(product, n, &d)
		rawSum = rawSum.Add(q.Total)
		perStepSum = perStepSum.Add(q.Rounded().Total)
	}

	assertDecimal(t, "1364.3175", rawSum)
	once := Round(rawSum)
	assertDecimal(t, "1364.32", once)
	assert.True(t, once.Sub(perStepSum).Abs().LessThanOrEqual(dec(t, "0.01")))

	twelve := ComputeTotal(product, 12, &d)
	assertDecimal(t, "209.895", twelve.Total)
	assertDecimal(t, "209.9", twelve.Rounded().Total)
}

func TestApplyDiscount_NilDiscountKeepsBase(t *testing.T) {
	t.Parallel()

	total, amount := ApplyDiscount(decimal.NewFromInt(80), nil)
	assertDecimal(t, "80", total)
	assertDecimal(t, "0", amount)
}

func TestEnsureNoDiscount(t *testing.T) {
	t.Parallel()

	require.NoError(t, EnsureNoDiscount("", enums.DiscountModeNone))
	require.NoError(t, EnsureNoDiscount("  ", ""))
	assert.ErrorIs(t, EnsureNoDiscount("PROMO1", enums.DiscountModeNone), ErrDiscountAlreadyApplied)
	assert.ErrorIs(t, EnsureNoDiscount("", enums.DiscountModeManual), ErrDiscountAlreadyApplied)
}
