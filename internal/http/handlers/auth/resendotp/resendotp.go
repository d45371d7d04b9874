// Package resendotp реализует HTTP-обработчик повторной отправки кода верификации.
package resendotp

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

// Request — входные данные для повторной отправки кода
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики повторной отправки кода.
type Service interface {
	ResendOTP(ctx context.Context, email string) error
}

// Handler управляет HTTP-запросами на повторную отправку кода.
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
// @Summary Повторно отправить код верификации
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Почта аккаунта"
// @Success 200 {object} response.Response "Код отправлен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Почта уже подтверждена"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит OTP"
// @Router /resend-otp [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resendotp"

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

	if err := h.service.ResendOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, authservice.ErrUserNotFound):
			log.Error("user not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, authservice.ErrAlreadyVerified):
			log.Error("email already verified", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("email already verified"))
		case errors.Is(err, authservice.ErrRateLimited):
			log.Error("otp limit exceeded", sl.Err(err))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many verification codes requested"))
		default:
			log.Error("failed to resend otp", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to send verification code"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "verification code sent",
	}))
}
