package doorbell

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/checkemail"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/resendotp"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/verifyotp"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/auth/verifyresetotp"
	requestcreate "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/request/create"
	requestlist "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/request/list"
	requestread "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/request/read"
	requestremove "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/request/remove"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/approvepayment"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/history"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/pendingpayments"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/plans"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/rejectpayment"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/subscription/submitpayment"
	visitorcreate "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/visitor/create"
	visitorlist "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/visitor/list"
	visitorread "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/visitor/read"
	visitorremove "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/visitor/remove"
	visitorupdate "github.com/magabrotheeeer/doorbell-backend/internal/http/handlers/visitor/update"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/doorbell-backend/internal/services/auth"
	requestservice "github.com/magabrotheeeer/doorbell-backend/internal/services/request"
	subservice "github.com/magabrotheeeer/doorbell-backend/internal/services/subscription"
	visitorservice "github.com/magabrotheeeer/doorbell-backend/internal/services/visitor"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	subscriptionService *subservice.SubscriptionService,
	visitorService *visitorservice.VisitorService,
	requestService *requestservice.RequestService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Post("/verify-otp", verifyotp.New(logger, authService).ServeHTTP)
		r.Post("/verify-reset-otp", verifyresetotp.New(logger, authService).ServeHTTP)
		r.Post("/reset-password", resetpassword.New(logger, authService).ServeHTTP)
		r.Post("/check-email", checkemail.New(logger, authService).ServeHTTP)
		r.Get("/subscription/plans", plans.New(logger, subscriptionService).ServeHTTP)

		// Конечные точки, выдающие OTP коды
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/register", register.New(logger, authService).ServeHTTP)
			r.Post("/resend-otp", resendotp.New(logger, authService).ServeHTTP)
			r.Post("/forgot-password", forgotpassword.New(logger, authService).ServeHTTP)
			r.Post("/resend-reset-otp", forgotpassword.New(logger, authService).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Post("/subscription/payments", submitpayment.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscription/status", status.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscription/history", history.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscription/payments/pending", pendingpayments.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscription/payments/{id}/approve", approvepayment.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscription/payments/{id}/reject", rejectpayment.New(logger, subscriptionService).ServeHTTP)

			r.Post("/visitors", visitorcreate.New(logger, visitorService).ServeHTTP)
			r.Get("/visitors", visitorlist.New(logger, visitorService).ServeHTTP)
			r.Get("/visitors/{id}", visitorread.New(logger, visitorService).ServeHTTP)
			r.Put("/visitors/{id}", visitorupdate.New(logger, visitorService).ServeHTTP)
			r.Delete("/visitors/{id}", visitorremove.New(logger, visitorService).ServeHTTP)

			r.Post("/requests", requestcreate.New(logger, requestService).ServeHTTP)
			r.Get("/requests", requestlist.New(logger, requestService).ServeHTTP)
			r.Get("/requests/{id}", requestread.New(logger, requestService).ServeHTTP)
			r.Delete("/requests/{id}", requestremove.New(logger, requestService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
