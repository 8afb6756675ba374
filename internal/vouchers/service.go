package vouchers

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/metrics"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/canyonbook-backend/pkg/security"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	codePrefix = "GV-"
	codeLength = 8

	msgNotFound = "voucher not found"
	msgInactive = "voucher is no longer active"
	msgExpired  = "voucher has expired"
	msgUsedUp   = "voucher has already been used"
)

// VoucherDTO is a gift voucher as shown to staff and the verify endpoint.
type VoucherDTO struct {
	Code          string             `json:"code"`
	Kind          enums.DiscountKind `json:"kind"`
	Amount        string             `json:"amount"`
	MaxUses       int                `json:"maxUses"`
	UsedCount     int                `json:"usedCount"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	PurchaserName *string            `json:"purchaserName,omitempty"`
}

// VerificationDTO answers GET /gift-vouchers/{code}/verify.
type VerificationDTO struct {
	Code    string      `json:"code"`
	Valid   bool        `json:"valid"`
	Voucher *VoucherDTO `json:"voucher,omitempty"`
	Message string      `json:"message,omitempty"`
}

type IssueInput struct {
	Code          string
	Kind          enums.DiscountKind
	Amount        decimal.Decimal
	MaxUses       int
	ExpiresAt     *time.Time
	PurchaserName *string
}

type Service interface {
	// Verify satisfies bookingform.VoucherVerifier.
	Verify(ctx context.Context, code string) (pricing.VoucherVerification, error)
	Check(ctx context.Context, code string) (*VerificationDTO, error)
	Issue(ctx context.Context, input IssueInput) (*VoucherDTO, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
	Release(ctx context.Context, tx *gorm.DB, code string) error
	ExpireDue(ctx context.Context, limit int) (int, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	outbox   outbox.Emitter
	metrics  *metrics.BookingMetrics
	logg     *logger.Logger
	now      func() time.Time
}

type ServiceParams struct {
	Repo    *Repository
	DB      *db.Client
	Outbox  outbox.Emitter
	Metrics *metrics.BookingMetrics
	Logger  *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     p.Repo,
		dbClient: p.DB,
		outbox:   p.Outbox,
		metrics:  p.Metrics,
		logg:     p.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Verify(ctx context.Context, code string) (pricing.VoucherVerification, error) {
	normalized := pricing.NormalizeCode(code)
	res := pricing.VoucherVerification{Code: normalized}
	if normalized == "" {
		res.Message = msgNotFound
		return res, nil
	}

	voucher, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		return res, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gift voucher")
	}
	res.Message = rejection(voucher, s.now().UTC())
	if res.Message == "" {
		d := pricing.GiftVoucher(voucher.Code, voucher.Kind, voucher.Amount)
		res.Valid = true
		res.Voucher = &d
	}
	s.metrics.IncVerification(res.Valid)
	return res, nil
}

func (s *service) Check(ctx context.Context, code string) (*VerificationDTO, error) {
	res, err := s.Verify(ctx, code)
	if err != nil {
		return nil, err
	}
	out := &VerificationDTO{Code: res.Code, Valid: res.Valid, Message: res.Message}
	if res.Valid {
		voucher, err := s.repo.FindByCode(ctx, res.Code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gift voucher")
		}
		if voucher != nil {
			out.Voucher = toDTO(voucher)
		}
	}
	return out, nil
}

func (s *service) Issue(ctx context.Context, input IssueInput) (*VoucherDTO, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount kind")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be > 0")
	}
	if input.Kind == enums.DiscountKindPercentage && input.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be <= 100")
	}
	maxUses := input.MaxUses
	if maxUses == 0 {
		maxUses = 1
	}
	if maxUses < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maxUses must be > 0")
	}

	code := pricing.NormalizeCode(input.Code)
	if code == "" {
		generated, err := security.GenerateCode(codePrefix, codeLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate voucher code")
		}
		code = generated
	}

	voucher := &models.GiftVoucher{
		Code:          code,
		Kind:          input.Kind,
		Amount:        input.Amount,
		MaxUses:       maxUses,
		Active:        true,
		PurchaserName: input.PurchaserName,
	}
	if input.ExpiresAt != nil {
		exp := input.ExpiresAt.UTC()
		voucher.ExpiresAt = &exp
	}
	if err := s.repo.Create(ctx, voucher); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "voucher code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert gift voucher")
	}
	s.logg.Info(s.logg.WithField(ctx, "voucher_code", code), "gift voucher issued")
	return toDTO(voucher), nil
}

// Redeem consumes one use of code inside the caller's transaction. A voucher that
// stopped being valid since it was verified yields a validation error.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	ok, err := s.repo.WithTx(tx).Redeem(ctx, pricing.NormalizeCode(code), s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem gift voucher")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "voucher is no longer valid").
			WithDetails(map[string]string{"voucherCode": "voucher is no longer valid"})
	}
	return nil
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, code string) error {
	if err := s.repo.WithTx(tx).Release(ctx, pricing.NormalizeCode(code), s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release gift voucher")
	}
	return nil
}

// ExpireDue deactivates up to limit vouchers past their expiry and emits one event each.
func (s *service) ExpireDue(ctx context.Context, limit int) (int, error) {
	now := s.now().UTC()
	expired := 0
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.ListExpired(ctx, now, limit)
		if err != nil {
			return err
		}
		for _, v := range rows {
			if err := txRepo.Deactivate(ctx, v.ID, now); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventGiftVoucherExpired,
				AggregateType: enums.AggregateGiftVoucher,
				AggregateID:   v.ID,
				Data: payloads.GiftVoucherExpiredEvent{
					VoucherID: v.ID,
					Code:      v.Code,
					UsedCount: v.UsedCount,
					MaxUses:   v.MaxUses,
					ExpiredAt: *v.ExpiresAt,
				},
			}); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire gift vouchers")
	}
	return expired, nil
}

// rejection returns the user-facing reason voucher cannot be applied, or "" when it can.
func rejection(voucher *models.GiftVoucher, now time.Time) string {
	switch {
	case voucher == nil:
		return msgNotFound
	case !voucher.Active:
		return msgInactive
	case voucher.ExpiresAt != nil && !now.Before(*voucher.ExpiresAt):
		return msgExpired
	case voucher.UsedCount >= voucher.MaxUses:
		return msgUsedUp
	}
	return ""
}

func toDTO(v *models.GiftVoucher) *VoucherDTO {
	return &VoucherDTO{
		Code:          v.Code,
		Kind:          v.Kind,
		Amount:        v.Amount.StringFixed(2),
		MaxUses:       v.MaxUses,
		UsedCount:     v.UsedCount,
		ExpiresAt:     v.ExpiresAt,
		PurchaserName: v.PurchaserName,
	}
}
