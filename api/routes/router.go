package routes

import (
	"net/http"

	"github.com/angelmondragon/canyonbook-backend/api/controllers"
	"github.com/angelmondragon/canyonbook-backend/api/middleware"
	"github.com/angelmondragon/canyonbook-backend/internal/auth"
	"github.com/angelmondragon/canyonbook-backend/internal/bookings"
	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/notifications"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/internal/promocodes"
	"github.com/angelmondragon/canyonbook-backend/internal/resellers"
	"github.com/angelmondragon/canyonbook-backend/internal/sessions"
	"github.com/angelmondragon/canyonbook-backend/internal/vouchers"
	"github.com/angelmondragon/canyonbook-backend/pkg/auth/session"
	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/redis"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// redisStore is the slice of the redis client the HTTP layer depends on.
type redisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	redis.RateLimiter
}

// Services groups the domain services mounted on the router.
type Services struct {
	Auth          auth.Service
	Products      products.Service
	Sessions      sessions.Service
	Bookings      bookings.Service
	Vouchers      vouchers.Service
	PromoCodes    promocodes.Service
	Resellers     resellers.Service
	Guides        guides.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	sessionChecker session.Checker,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	voucherPolicy := middleware.NewRateLimitPolicy(
		"voucher_verify",
		cfg.AuthRateLimit.VoucherVerifyWindow,
		cfg.AuthRateLimit.VoucherVerifyLimit,
		0,
	)

	var limiter redis.RateLimiter
	var idemStore redis.IdempotencyStore
	deps := map[string]redis.Pinger{"database": dbP}
	if redisClient != nil {
		limiter = redisClient
		idemStore = redisClient
		deps["redis"] = redisClient
	}
	idempotent := middleware.Idempotency(idemStore, cfg.Booking.IdempotencyTTL, logg)
	staff := middleware.RequireStaff(logg)
	adminOnly := middleware.RequireRoles(logg, enums.RoleAdmin)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.ActAsGuide(logg))

		r.Get("/products", controllers.ListProducts(svc.Products, logg))
		r.Get("/products/{productID}", controllers.GetProduct(svc.Products, logg))
		r.With(adminOnly).Post("/products", controllers.CreateProduct(svc.Products, logg))

		r.Get("/sessions", controllers.ListSessions(svc.Sessions, logg))
		r.Get("/sessions/{sessionID}", controllers.GetSession(svc.Sessions, logg))
		r.With(staff).Post("/sessions", controllers.CreateSession(svc.Sessions, logg))
		r.With(staff).Get("/sessions/{sessionID}/bookings", controllers.ListSessionBookings(svc.Bookings, logg))

		r.Post("/bookings/quote", controllers.QuoteBooking(svc.Bookings, logg))
		r.With(idempotent).Post("/bookings", controllers.CreateBooking(svc.Bookings, logg))
		r.Get("/bookings/{bookingID}", controllers.GetBooking(svc.Bookings, logg))
		r.Put("/bookings/{bookingID}", controllers.UpdateBooking(svc.Bookings, logg))
		r.Post("/bookings/{bookingID}/discount", controllers.ApplyBookingDiscount(svc.Bookings, logg))
		r.With(idempotent).Post("/bookings/{bookingID}/cancel", controllers.CancelBooking(svc.Bookings, logg))
		r.Group(func(r chi.Router) {
			r.Use(staff)
			r.Post("/bookings/{bookingID}/manual-price", controllers.SetBookingManualPrice(svc.Bookings, logg))
			r.With(idempotent).Post("/bookings/{bookingID}/payments", controllers.RecordBookingPayment(svc.Bookings, logg))
		})

		r.With(middleware.RateLimit(voucherPolicy, limiter, logg)).Get("/gift-vouchers/{code}/verify", controllers.VerifyVoucher(svc.Vouchers, logg))
		r.With(adminOnly, idempotent).Post("/gift-vouchers", controllers.IssueVoucher(svc.Vouchers, logg))

		r.Get("/promo-codes", controllers.ListPromoCodes(svc.PromoCodes, logg))
		r.With(staff, idempotent).Post("/promo-codes", controllers.CreatePromoCode(svc.PromoCodes, logg))

		r.Get("/resellers", controllers.ListResellers(svc.Resellers, logg))

		r.Group(func(r chi.Router) {
			r.Use(staff)
			r.Get("/guides/{guideID}", controllers.GetGuide(svc.Guides, logg))
			r.Put("/guides/{guideID}/deposit-policy", controllers.UpdateGuideDepositPolicy(svc.Guides, logg))
		})

		r.Get("/notifications", controllers.ListNotifications(svc.Notifications, logg))
		r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
		r.Post("/notifications/{notificationID}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
	})

	return r
}
