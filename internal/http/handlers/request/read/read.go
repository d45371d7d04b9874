// Package read реализует HTTP-обработчик выдачи заявки на владение.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	requestservice "github.com/magabrotheeeer/doorbell-backend/internal/services/request"
)

// Service описывает интерфейс бизнес-логики выдачи заявки.
type Service interface {
	Get(ctx context.Context, requestUID, userUID string) (*models.OwnershipRequest, error)
}

// Handler управляет HTTP-запросами на выдачу заявки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить заявку на владение
// @Tags Requests
// @Produce  json
// @Param id path string true "UID заявки"
// @Success 200 {object} response.Response "Заявка"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Security BearerAuth
// @Router /requests/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	requestUID := chi.URLParam(r, "id")
	request, err := h.service.Get(r.Context(), requestUID, userUID)
	if err != nil {
		if errors.Is(err, requestservice.ErrRequestNotFound) {
			log.Error("request not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
			return
		}
		log.Error("failed to get ownership request", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get request"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"request_uid": request.UID,
		"type":        request.Type,
		"details":     request.Details,
		"created_at":  request.CreatedAt,
	}))
}
