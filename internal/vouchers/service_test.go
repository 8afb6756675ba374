package vouchers

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/dbtest"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *service
	repo *Repository
	db   *db.Client
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Schema...)
	client := db.NewFromGorm(conn)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		DB:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	s := svc.(*service)
	s.now = func() time.Time { return fixedNow }
	return fixture{svc: s, repo: repo, db: client}
}

func (f fixture) issue(t *testing.T, in IssueInput) *VoucherDTO {
	t.Helper()
	dto, err := f.svc.Issue(context.Background(), in)
	require.NoError(t, err)
	return dto
}

func TestIssueGeneratesCode(t *testing.T) {
	f := newFixture(t)

	dto := f.issue(t, IssueInput{Kind: enums.DiscountKindPercentage, Amount: decimal.NewFromInt(10)})
	assert.Regexp(t, `^GV-[A-Z2-9]{8}$`, dto.Code)
	assert.Equal(t, 1, dto.MaxUses)

	_, err := f.svc.Issue(context.Background(), IssueInput{Code: dto.Code, Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.svc.Issue(context.Background(), IssueInput{Kind: enums.DiscountKindPercentage, Amount: decimal.NewFromInt(150)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestVerifyReasons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := fixedNow.Add(-time.Minute)

	f.issue(t, IssueInput{Code: "GIFT-OK", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(30)})
	f.issue(t, IssueInput{Code: "GIFT-OLD", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(30), ExpiresAt: &past})
	f.issue(t, IssueInput{Code: "GIFT-OFF", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(30)})
	require.NoError(t, f.repo.DB(ctx).Model(&models.GiftVoucher{}).Where("code = ?", "GIFT-OFF").Update("active", false).Error)

	res, err := f.svc.Verify(ctx, " gift-ok ")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "GIFT-OK", res.Code)
	require.NotNil(t, res.Voucher)
	assert.Equal(t, enums.DiscountModeVoucher, res.Voucher.Source)

	cases := map[string]string{
		"GIFT-OLD": msgExpired,
		"GIFT-OFF": msgInactive,
		"MISSING":  msgNotFound,
		"":         msgNotFound,
	}
	for code, want := range cases {
		res, err := f.svc.Verify(ctx, code)
		require.NoError(t, err)
		assert.False(t, res.Valid, code)
		assert.Equal(t, want, res.Message, code)
		assert.Nil(t, res.Voucher, code)
	}

	dto, err := f.svc.Check(ctx, "gift-ok")
	require.NoError(t, err)
	assert.True(t, dto.Valid)
	require.NotNil(t, dto.Voucher)
	assert.Equal(t, "30.00", dto.Voucher.Amount)
}

func TestRedeemHonoursMaxUses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.issue(t, IssueInput{Code: "DUO", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(20), MaxUses: 2})

	redeem := func() error {
		return f.db.WithTx(ctx, func(tx *gorm.DB) error {
			return f.svc.Redeem(ctx, tx, "duo")
		})
	}
	require.NoError(t, redeem())
	require.NoError(t, redeem())
	err := redeem()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	res, err := f.svc.Verify(ctx, "DUO")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, msgUsedUp, res.Message)

	require.NoError(t, f.db.WithTx(ctx, func(tx *gorm.DB) error {
		return f.svc.Release(ctx, tx, "DUO")
	}))
	res, err = f.svc.Verify(ctx, "DUO")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestRedeemRollsBackWithTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.issue(t, IssueInput{Code: "ONCE", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(20)})

	err := f.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := f.svc.Redeem(ctx, tx, "ONCE"); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeCapacity, "session full")
	})
	require.Error(t, err)

	stored, err := f.repo.FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestExpireDueDeactivatesAndEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	f.issue(t, IssueInput{Code: "PAST", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(20), ExpiresAt: &past})
	f.issue(t, IssueInput{Code: "FUTURE", Kind: enums.DiscountKindFixed, Amount: decimal.NewFromInt(20), ExpiresAt: &future})

	n, err := f.svc.ExpireDue(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.repo.FindByCode(ctx, "PAST")
	require.NoError(t, err)
	assert.False(t, stored.Active)

	var events []models.OutboxEvent
	require.NoError(t, f.repo.DB(ctx).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventGiftVoucherExpired, events[0].EventType)
	assert.Equal(t, stored.ID, events[0].AggregateID)

	n, err = f.svc.ExpireDue(ctx, 50)
	require.NoError(t, err)
	assert.Zero(t, n)
}
