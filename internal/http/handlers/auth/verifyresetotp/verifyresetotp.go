// Package verifyresetotp реализует HTTP-обработчик проверки кода сброса пароля.
package verifyresetotp

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

// Request — входные данные для проверки кода сброса
type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// Service описывает интерфейс бизнес-логики проверки кода сброса.
type Service interface {
	VerifyResetOTP(ctx context.Context, email, code string) (string, error)
}

// Handler управляет HTTP-запросами на проверку кода сброса.
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
// @Summary Проверить код сброса пароля
// @Description Сверяет код и возвращает короткоживущий токен смены пароля.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Почта и код"
// @Success 200 {object} response.Response "Токен сброса"
// @Failure 400 {object} response.ErrorResponse "Неверный или истёкший код"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /verify-reset-otp [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyresetotp"

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

	resetToken, err := h.service.VerifyResetOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrUserNotFound):
			log.Error("user not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, authservice.ErrNoChallenge),
			errors.Is(err, authservice.ErrOTPExpired),
			errors.Is(err, authservice.ErrOTPMismatch):
			log.Error("reset code verification failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid or expired code"))
		default:
			log.Error("failed to verify reset code", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to verify code"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"reset_token": resetToken,
	}))
}
