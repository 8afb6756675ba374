package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/bookingform"
	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/internal/promocodes"
	"github.com/angelmondragon/canyonbook-backend/internal/resellers"
	"github.com/angelmondragon/canyonbook-backend/internal/sessions"
	"github.com/angelmondragon/canyonbook-backend/internal/vouchers"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/metrics"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/angelmondragon/canyonbook-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	referencePrefix = "CB-"
	referenceLength = 6
)

// Service exposes booking pricing and lifecycle operations.
type Service interface {
	Quote(ctx context.Context, actor Actor, input QuoteInput) (*QuoteDTO, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*BookingDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*BookingDTO, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateInput) (*BookingDTO, error)
	ApplyDiscount(ctx context.Context, actor Actor, id uuid.UUID, input ApplyDiscountInput) (*BookingDTO, error)
	SetManualPrice(ctx context.Context, actor Actor, id uuid.UUID, input ManualPriceInput) (*BookingDTO, error)
	RecordPayment(ctx context.Context, actor Actor, id uuid.UUID, input PaymentInput) (*BookingDTO, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*BookingDTO, error)
	ListBySession(ctx context.Context, actor Actor, sessionID uuid.UUID) (*SessionBookingsDTO, error)
}

// ManualDiscount is a staff override expressed as a percentage or fixed amount.
type ManualDiscount struct {
	Kind   enums.DiscountKind
	Amount decimal.Decimal
}

// QuoteInput prices a prospective booking without persisting anything.
type QuoteInput struct {
	SessionID    uuid.UUID
	Participants int
	AddOns       []products.Selection
	PromoCode    string
	VoucherCode  string
	Manual       *ManualDiscount
}

// CreateInput is the booking form payload.
type CreateInput struct {
	SessionID    uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Participants int
	ResellerID   *uuid.UUID
	Notes        string
	AddOns       []products.Selection
	PromoCode    string
	VoucherCode  string
	Manual       *ManualDiscount
}

// UpdateInput carries optional changes to an existing booking. Discounts are changed
// through ApplyDiscount and SetManualPrice only.
type UpdateInput struct {
	SessionID    *uuid.UUID
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Participants *int
	Notes        *string
	AddOns       *[]products.Selection
}

type ServiceParams struct {
	DB        *db.Client
	Repo      *Repository
	Sessions  *sessions.Repository
	Products  *products.Repository
	Guides    *guides.Repository
	Resellers *resellers.Repository
	Promos    promocodes.Service
	Vouchers  vouchers.Service
	Outbox    outbox.Emitter
	Metrics   *metrics.BookingMetrics
	Logger    *logger.Logger
	Currency  string
}

type service struct {
	db        *db.Client
	repo      *Repository
	sessions  *sessions.Repository
	products  *products.Repository
	guides    *guides.Repository
	resellers *resellers.Repository
	promos    promocodes.Service
	vouchers  vouchers.Service
	outbox    outbox.Emitter
	metrics   *metrics.BookingMetrics
	logg      *logger.Logger
	currency  string

	now          func() time.Time
	newReference func() (string, error)
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.DB == nil:
		return nil, fmt.Errorf("db client required")
	case p.Repo == nil:
		return nil, fmt.Errorf("booking repository required")
	case p.Sessions == nil:
		return nil, fmt.Errorf("session repository required")
	case p.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case p.Guides == nil:
		return nil, fmt.Errorf("guide repository required")
	case p.Resellers == nil:
		return nil, fmt.Errorf("reseller repository required")
	case p.Promos == nil:
		return nil, fmt.Errorf("promo code service required")
	case p.Vouchers == nil:
		return nil, fmt.Errorf("voucher service required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:        p.DB,
		repo:      p.Repo,
		sessions:  p.Sessions,
		products:  p.Products,
		guides:    p.Guides,
		resellers: p.Resellers,
		promos:    p.Promos,
		vouchers:  p.Vouchers,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
		logg:      p.Logger,
		currency:  p.Currency,
		now:       time.Now,
		newReference: func() (string, error) {
			return security.GenerateCode(referencePrefix, referenceLength)
		},
	}, nil
}

// target is the session a draft is priced against, with its product and add-on catalog.
type target struct {
	session *models.ActivitySession
	product *models.Product
}

func (t target) form(remaining int) bookingform.Target {
	return bookingform.Target{
		ProductID:         t.product.ID.String(),
		Product:           products.RateTable(t.product),
		RemainingCapacity: remaining,
	}
}

func (s *service) loadTarget(ctx context.Context, sessionID uuid.UUID) (target, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return target{}, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return target{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if err := sessions.EnsureBookable(session); err != nil {
		return target{}, err
	}
	product, err := s.products.FindByID(ctx, session.ProductID)
	if err != nil {
		return target{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return target{session: session, product: product}, nil
}

func (s *service) Quote(ctx context.Context, actor Actor, input QuoteInput) (*QuoteDTO, error) {
	t, err := s.loadTarget(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	lines, err := products.ResolveSelections(t.product, input.AddOns, input.Participants)
	if err != nil {
		return nil, err
	}
	left, err := s.sessions.RemainingCapacity(ctx, t.session, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count booked seats")
	}

	form := bookingform.New(bookingform.Options{Verifier: s.vouchers})
	if err := form.SetTarget(t.form(left)); err != nil {
		return nil, err
	}
	if err := form.SetParticipants(input.Participants); err != nil {
		return nil, err
	}
	if err := form.SetAddOns(products.Charges(lines)); err != nil {
		return nil, err
	}
	if err := s.selectDiscount(ctx, form, t, actor, discountChoice{promo: input.PromoCode, voucher: input.VoucherCode, manual: input.Manual}, false); err != nil {
		return nil, err
	}

	quote := form.Quote()
	policy, err := s.depositPolicy(ctx, s.db.DB(), t.session.GuideID)
	if err != nil {
		return nil, err
	}
	dto := newQuoteDTO(quote, pricing.Deposit(quote.Rounded().Total, policy))
	dto.VoucherMessage = form.VoucherMessage()
	dto.RemainingSeats = left
	dto.Currency = s.currency
	s.metrics.IncQuote(string(form.DiscountMode()))
	return dto, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*BookingDTO, error) {
	if actor.Role == enums.RoleReseller {
		if actor.ResellerID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reseller account is not linked to an agency")
		}
		input.ResellerID = actor.ResellerID
	}

	t, err := s.loadTarget(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	lines, err := products.ResolveSelections(t.product, input.AddOns, input.Participants)
	if err != nil {
		return nil, err
	}
	left, err := s.sessions.RemainingCapacity(ctx, t.session, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count booked seats")
	}
	if input.Participants > left {
		return nil, s.reject(capacityError(left))
	}

	var created *models.Booking
	submit := bookingform.SubmitterFunc(func(ctx context.Context, sub bookingform.Submission) (string, error) {
		booking, err := s.insert(ctx, actor, t, lines, sub)
		if err != nil {
			return "", err
		}
		created = booking
		return booking.ID.String(), nil
	})

	form := bookingform.New(bookingform.Options{
		Submitter: submit,
		Verifier:  s.vouchers,
		Existing:  &bookingform.Draft{SessionID: t.session.ID.String()},
	})
	if err := s.fillForm(form, t, left, input, lines); err != nil {
		return nil, err
	}
	if err := s.selectDiscount(ctx, form, t, actor, discountChoice{promo: input.PromoCode, voucher: input.VoucherCode, manual: input.Manual}, true); err != nil {
		return nil, s.reject(err)
	}
	if err := form.Submit(ctx); err != nil {
		return nil, s.reject(submitError(err))
	}

	s.metrics.IncCreated(string(created.DiscountType))
	logCtx := s.logg.WithBookingID(ctx, created.ID.String())
	s.logg.Info(logCtx, "booking created")
	return s.Get(ctx, actor, created.ID)
}

func (s *service) fillForm(form *bookingform.Controller, t target, left int, input CreateInput, lines []products.Line) error {
	resellerID := ""
	if input.ResellerID != nil {
		resellerID = input.ResellerID.String()
	}
	steps := []func() error{
		func() error { return form.SetTarget(t.form(left)) },
		func() error { return form.SetCustomer(input.FirstName, input.LastName, input.Email, input.Phone) },
		func() error { return form.SetParticipants(input.Participants) },
		func() error { return form.SetReseller(input.ResellerID != nil, resellerID) },
		func() error { return form.SetAddOns(products.Charges(lines)) },
		func() error { return form.SetNotes(input.Notes) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare booking form")
		}
	}
	return nil
}

// insert persists a validated submission. The session row is locked so concurrent
// bookings cannot oversell it.
func (s *service) insert(ctx context.Context, actor Actor, t target, lines []products.Line, sub bookingform.Submission) (*models.Booking, error) {
	var booking *models.Booking
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		sessionRepo := s.sessions.WithTx(tx)
		session, err := sessionRepo.LockForUpdate(ctx, t.session.ID)
		if err != nil {
			return err
		}
		if err := sessions.EnsureBookable(session); err != nil {
			return err
		}
		left, err := sessionRepo.RemainingCapacity(ctx, session, nil)
		if err != nil {
			return err
		}
		if sub.Draft.Participants > left {
			return capacityError(left)
		}

		if sub.Discount != nil && sub.Discount.Source == enums.DiscountModeVoucher {
			if err := s.vouchers.Redeem(ctx, tx, sub.Discount.Code); err != nil {
				return err
			}
		}

		policy, err := s.depositPolicy(ctx, tx, session.GuideID)
		if err != nil {
			return err
		}
		resellerID, pct, err := s.commissionRate(ctx, tx, sub.Draft.ResellerID)
		if err != nil {
			return err
		}
		reference, err := s.newReference()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate booking reference")
		}

		booking = &models.Booking{
			ID:             uuid.New(),
			Reference:      reference,
			SessionID:      session.ID,
			ProductID:      t.product.ID,
			FirstName:      sub.Draft.FirstName,
			LastName:       sub.Draft.LastName,
			Email:          strPtr(sub.Draft.Email),
			Phone:          strPtr(sub.Draft.Phone),
			NumberOfPeople: sub.Draft.Participants,
			Status:         enums.BookingStatusConfirmed,
			AmountPaid:     decimal.Zero,
			ResellerID:     resellerID,
			Notes:          strPtr(strings.TrimSpace(sub.Draft.Notes)),
			CreatedBy:      actor.userPtr(),
			AddOns:         addOnRows(lines),
		}
		applyQuote(booking, sub.Quote)
		settle(booking, policy, pct)

		if err := s.repo.WithTx(tx).Create(ctx, booking); err != nil {
			if db.IsUniqueViolation(err, "bookings_reference_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "booking reference collision, retry")
			}
			return err
		}
		return s.emitCreated(ctx, tx, actor, booking, session)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*BookingDTO, error) {
	booking, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return NewBookingDTO(booking), nil
}

func (s *service) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if !actor.canSee(booking) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return booking, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateInput) (*BookingDTO, error) {
	booking, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == enums.BookingStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled bookings cannot be edited")
	}

	sessionID := booking.SessionID
	if input.SessionID != nil {
		sessionID = *input.SessionID
	}
	t, err := s.loadTarget(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	left, err := s.sessions.RemainingCapacity(ctx, t.session, &booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count booked seats")
	}

	participants := booking.NumberOfPeople
	if input.Participants != nil {
		participants = *input.Participants
	}
	if participants > left {
		return nil, s.reject(capacityError(left))
	}

	changes := changeSet{
		session:      sessionID != booking.SessionID,
		participants: participants != booking.NumberOfPeople,
		addOns:       input.AddOns != nil && !sameSelections(*input.AddOns, storedSelections(booking), participants),
	}
	selections := storedSelections(booking)
	if input.AddOns != nil {
		selections = *input.AddOns
	}
	var lines []products.Line
	if changes.addOns || (changes.session && t.product.ID != booking.ProductID) {
		changes.addOns = true
		lines, err = products.ResolveSelections(t.product, selections, participants)
		if err != nil {
			return nil, err
		}
	} else {
		lines = storedLines(booking)
	}

	draft := bookingform.Draft{
		BookingID:       booking.ID.String(),
		SessionID:       t.session.ID.String(),
		FirstName:       booking.FirstName,
		LastName:        booking.LastName,
		Email:           deref(booking.Email),
		Phone:           deref(booking.Phone),
		Participants:    booking.NumberOfPeople,
		ResellerBooking: booking.ResellerID != nil,
		Notes:           deref(booking.Notes),
	}
	if booking.ResellerID != nil {
		draft.ResellerID = booking.ResellerID.String()
	}

	submit := bookingform.SubmitterFunc(func(ctx context.Context, sub bookingform.Submission) (string, error) {
		return booking.ID.String(), s.save(ctx, actor, booking.ID, t, lines, changes, sub)
	})
	form := bookingform.New(bookingform.Options{
		Submitter: submit,
		Verifier:  s.vouchers,
		Existing:  &draft,
		Discount:  storedDiscount(booking),
	})
	edits := CreateInput{
		FirstName:    pick(input.FirstName, draft.FirstName),
		LastName:     pick(input.LastName, draft.LastName),
		Email:        pick(input.Email, draft.Email),
		Phone:        pick(input.Phone, draft.Phone),
		Participants: participants,
		ResellerID:   booking.ResellerID,
		Notes:        pick(input.Notes, draft.Notes),
	}
	if err := s.fillForm(form, t, left, edits, lines); err != nil {
		return nil, err
	}
	if err := form.Submit(ctx); err != nil {
		return nil, s.reject(submitError(err))
	}
	return s.Get(ctx, actor, booking.ID)
}

type changeSet struct {
	session      bool
	participants bool
	addOns       bool
}

func (c changeSet) repriced() bool {
	return c.session || c.participants || c.addOns
}

// save applies an edited draft to the locked booking row. The price is only recomputed
// when something that affects it changed; an absolute manual price is kept as entered.
func (s *service) save(ctx context.Context, actor Actor, id uuid.UUID, t target, lines []products.Line, changes changeSet, sub bookingform.Submission) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		booking, err := txRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if booking.Status == enums.BookingStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled bookings cannot be edited")
		}

		sessionRepo := s.sessions.WithTx(tx)
		session, err := sessionRepo.LockForUpdate(ctx, t.session.ID)
		if err != nil {
			return err
		}
		left, err := sessionRepo.RemainingCapacity(ctx, session, &booking.ID)
		if err != nil {
			return err
		}
		if sub.Draft.Participants > left {
			return capacityError(left)
		}

		changed := fieldChanges(booking, sub.Draft, changes)
		booking.SessionID = session.ID
		booking.ProductID = t.product.ID
		booking.FirstName = sub.Draft.FirstName
		booking.LastName = sub.Draft.LastName
		booking.Email = strPtr(sub.Draft.Email)
		booking.Phone = strPtr(sub.Draft.Phone)
		booking.NumberOfPeople = sub.Draft.Participants
		booking.Notes = strPtr(strings.TrimSpace(sub.Draft.Notes))

		if changes.repriced() {
			if booking.ManualPrice {
				total := booking.TotalPrice
				applyQuote(booking, sub.Quote)
				applyAbsolutePrice(booking, total)
			} else {
				applyQuote(booking, sub.Quote)
			}
		}

		if err := s.resettle(ctx, tx, booking, session); err != nil {
			return err
		}
		if err := txRepo.Save(ctx, booking); err != nil {
			return err
		}
		if changes.addOns {
			if err := txRepo.ReplaceAddOns(ctx, booking.ID, addOnRows(lines)); err != nil {
				return err
			}
		}
		return s.emitUpdated(ctx, tx, actor, booking, session, changed)
	})
}

func (s *service) ListBySession(ctx context.Context, actor Actor, sessionID uuid.UUID) (*SessionBookingsDTO, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	rows, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session bookings")
	}

	out := &SessionBookingsDTO{SessionID: sessionID, Bookings: make([]SessionBookingDTO, 0, len(rows))}
	rates := map[uuid.UUID]pricing.Product{}
	total, paid, commission := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range rows {
		b := &rows[i]
		if !actor.canSee(b) {
			continue
		}
		rate, ok := rates[b.ProductID]
		if !ok {
			product, err := s.products.FindByID(ctx, b.ProductID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			rate = products.RateTable(product)
			rates[b.ProductID] = rate
		}
		computed := recomputedTotal(b, rate)
		out.Bookings = append(out.Bookings, SessionBookingDTO{
			BookingDTO:    *NewBookingDTO(b),
			ComputedTotal: money(computed),
			PriceMismatch: !computed.Equal(pricing.Round(b.TotalPrice)),
		})
		if !b.Status.HoldsCapacity() {
			continue
		}
		out.Totals.Bookings++
		out.Totals.Participants += b.NumberOfPeople
		total = total.Add(computed)
		paid = paid.Add(b.AmountPaid)
		commission = commission.Add(b.CommissionAmount)
	}
	out.Totals.TotalPrice = money(total)
	out.Totals.AmountPaid = money(paid)
	out.Totals.Outstanding = money(decimal.Max(total.Sub(paid), decimal.Zero))
	out.Totals.Commission = money(commission)
	return out, nil
}

// discountChoice is the discount requested alongside a booking form.
type discountChoice struct {
	promo   string
	voucher string
	manual  *ManualDiscount
}

func (c discountChoice) count() int {
	n := 0
	if strings.TrimSpace(c.promo) != "" {
		n++
	}
	if strings.TrimSpace(c.voucher) != "" {
		n++
	}
	if c.manual != nil {
		n++
	}
	return n
}

// selectDiscount feeds the requested discount through the form's resolver. With strict set
// a voucher that fails verification is an error; otherwise it only leaves a message.
func (s *service) selectDiscount(ctx context.Context, form *bookingform.Controller, t target, actor Actor, choice discountChoice, strict bool) error {
	if choice.count() > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "only one discount may be applied").
			WithDetails(map[string]string{"discount": "choose a promo code, a gift voucher or a manual discount"})
	}
	switch {
	case strings.TrimSpace(choice.promo) != "":
		d, err := s.promos.Lookup(ctx, choice.promo, t.session.GuideID)
		if err != nil {
			return err
		}
		return form.SelectPromo(d)

	case strings.TrimSpace(choice.voucher) != "":
		if err := form.SetVoucherInput(choice.voucher); err != nil {
			return err
		}
		ok, err := form.VerifyVoucher(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify gift voucher")
		}
		if !ok && strict {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid gift voucher").
				WithDetails(map[string]string{"voucherCode": form.VoucherMessage()})
		}
		return nil

	case choice.manual != nil:
		if err := actor.requireStaff("manual discount"); err != nil {
			return err
		}
		if !choice.manual.Kind.IsValid() || choice.manual.Amount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid manual discount")
		}
		return form.SetManualDiscount(choice.manual.Kind, choice.manual.Amount)
	}
	return nil
}

func (s *service) depositPolicy(ctx context.Context, tx *gorm.DB, guideID *uuid.UUID) (pricing.DepositPolicy, error) {
	if guideID == nil {
		return guides.Policy(nil), nil
	}
	guide, err := s.guides.WithTx(tx).FindByID(ctx, *guideID)
	if err != nil {
		return pricing.DepositPolicy{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guide")
	}
	return guides.Policy(guide), nil
}

// commissionRate resolves the reseller named on a draft. An empty id means a direct booking.
func (s *service) commissionRate(ctx context.Context, tx *gorm.DB, rawID string) (*uuid.UUID, decimal.Decimal, error) {
	if rawID == "" {
		return nil, decimal.Zero, nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid reseller id")
	}
	reseller, err := s.resellers.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reseller")
	}
	if reseller == nil || !reseller.Active {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "reseller is not available").
			WithDetails(map[string]string{"resellerId": "unknown or inactive reseller"})
	}
	return &reseller.ID, reseller.CommissionPercentage, nil
}

// reject counts a refused booking write by error code.
func (s *service) reject(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(string(typed.Code()))
	}
	return err
}

func capacityError(remaining int) error {
	return pkgerrors.New(pkgerrors.CodeCapacity, "not enough places left on this session").
		WithDetails(map[string]int{"remainingCapacity": remaining})
}

// submitError maps a form submission failure onto the API error codes.
func submitError(err error) error {
	var verr *bookingform.ValidationError
	if errors.As(err, &verr) {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking form is invalid").WithDetails(verr.Fields)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
}

func addOnRows(lines []products.Line) []models.BookingAddOn {
	rows := make([]models.BookingAddOn, 0, len(lines))
	for _, l := range lines {
		if l.Charge.Quantity <= 0 {
			continue
		}
		rows = append(rows, models.BookingAddOn{
			AddOnID:  l.AddOn.ID,
			Name:     l.AddOn.Name,
			UnitFee:  l.AddOn.UnitFee,
			Quantity: l.Charge.Quantity,
		})
	}
	return rows
}

// storedLines rebuilds priced lines from the add-on snapshot kept on a booking.
func storedLines(b *models.Booking) []products.Line {
	lines := make([]products.Line, 0, len(b.AddOns))
	for _, a := range b.AddOns {
		catalog := models.ProductAddOn{ID: a.AddOnID, ProductID: b.ProductID, Name: a.Name, UnitFee: a.UnitFee}
		lines = append(lines, products.Line{AddOn: catalog, Charge: products.AddOnCharge(catalog, a.Quantity)})
	}
	return lines
}

func storedSelections(b *models.Booking) []products.Selection {
	out := make([]products.Selection, 0, len(b.AddOns))
	for _, a := range b.AddOns {
		out = append(out, products.Selection{AddOnID: a.AddOnID, Quantity: a.Quantity})
	}
	return out
}

// sameSelections reports whether a and b charge the same quantity of every add-on once
// per-participant quantities are resolved.
func sameSelections(a, b []products.Selection, participants int) bool {
	count := func(sel []products.Selection) map[uuid.UUID]int {
		out := make(map[uuid.UUID]int, len(sel))
		for _, s := range sel {
			qty := s.Quantity
			if qty == 0 {
				qty = participants
			}
			out[s.AddOnID] += qty
		}
		return out
	}
	for _, s := range a {
		if s.Quantity < 0 {
			return false
		}
	}
	ca, cb := count(a), count(b)
	if len(ca) != len(cb) {
		return false
	}
	for id, qty := range ca {
		if cb[id] != qty {
			return false
		}
	}
	return true
}

func fieldChanges(b *models.Booking, d bookingform.Draft, c changeSet) []string {
	var changed []string
	if c.session {
		changed = append(changed, "sessionId")
	}
	if c.participants {
		changed = append(changed, "numberOfPeople")
	}
	if c.addOns {
		changed = append(changed, "addOns")
	}
	if b.FirstName != d.FirstName || b.LastName != d.LastName {
		changed = append(changed, "name")
	}
	if deref(b.Email) != d.Email {
		changed = append(changed, "email")
	}
	if deref(b.Phone) != d.Phone {
		changed = append(changed, "phone")
	}
	if deref(b.Notes) != strings.TrimSpace(d.Notes) {
		changed = append(changed, "notes")
	}
	return changed
}

func pick(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
