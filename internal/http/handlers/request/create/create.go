// Package create реализует HTTP-обработчик создания заявки на владение.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	requestservice "github.com/magabrotheeeer/doorbell-backend/internal/services/request"
)

// Request — входные данные для создания заявки
type Request struct {
	Type    string         `json:"type" validate:"required,oneof=ownership_transfer beneficial_allotment secondary_ownership"`
	Details map[string]any `json:"details" validate:"required"`
}

// Service описывает интерфейс бизнес-логики создания заявки.
type Service interface {
	Create(ctx context.Context, user *models.User, requestType string,
		details map[string]any) (*models.OwnershipRequest, error)
}

// Handler управляет HTTP-запросами на создание заявки.
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
// @Summary Создать заявку на владение
// @Tags Requests
// @Accept  json
// @Produce  json
// @Param request body Request true "Тип заявки и детали"
// @Success 200 {object} response.Response "Заявка создана"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /requests [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

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

	request, err := h.service.Create(r.Context(), user, req.Type, req.Details)
	if err != nil {
		if errors.Is(err, requestservice.ErrUnknownRequestType) {
			log.Error("unknown request type", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("unknown request type"))
			return
		}
		log.Error("failed to create ownership request", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create request"))
		return
	}

	log.Info("ownership request created", slog.String("request_uid", request.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"request_uid": request.UID,
	}))
}
