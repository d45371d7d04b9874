// Package forgotpassword реализует HTTP-обработчик запроса кода сброса пароля.
//
// Ответ для неизвестной почты не отличается от успешного, чтобы не раскрывать
// существование аккаунта.
package forgotpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	authservice "github.com/magabrotheeeer/doorbell-backend/internal/services/auth"
)

// Request — входные данные для запроса сброса пароля
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
}

// Handler управляет HTTP-запросами на запрос кода сброса пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запросить код сброса пароля
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Почта аккаунта"
// @Success 200 {object} response.Response "Код отправлен, если аккаунт существует"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит OTP"
// @Router /forgot-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgotpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, authservice.ErrUserNotFound),
			errors.Is(err, authservice.ErrNotVerified):
			// Существование аккаунта не раскрывается.
			log.Info("reset requested for ineligible email")
		case errors.Is(err, authservice.ErrRateLimited):
			log.Error("otp limit exceeded", sl.Err(err))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many reset codes requested"))
			return
		default:
			log.Error("failed to issue reset code", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to send reset code"))
			return
		}
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "if the account exists, a reset code has been sent",
	}))
}
