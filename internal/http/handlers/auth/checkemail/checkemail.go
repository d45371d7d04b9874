// Package checkemail реализует HTTP-обработчик проверки занятости почты.
package checkemail

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
)

// Request — входные данные для проверки почты
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики проверки почты.
type Service interface {
	CheckEmail(ctx context.Context, email string) (exists, verified bool, err error)
}

// Handler управляет HTTP-запросами на проверку почты.
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
// @Summary Проверить занятость почты
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Почта"
// @Success 200 {object} response.Response "Статус почты"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /check-email [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.checkemail"

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

	exists, verified, err := h.service.CheckEmail(r.Context(), req.Email)
	if err != nil {
		log.Error("failed to check email", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to check email"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"exists":   exists,
		"verified": verified,
	}))
}
