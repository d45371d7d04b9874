// Package list реализует HTTP-обработчик списка заявок на владение.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики списка заявок.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.OwnershipRequest, error)
}

// Handler управляет HTTP-запросами на список заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить заявки на владение
// @Tags Requests
// @Produce  json
// @Success 200 {object} response.Response "Список заявок"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /requests [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.list"

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

	requests, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list ownership requests", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list requests"))
		return
	}

	items := make([]map[string]any, 0, len(requests))
	for _, request := range requests {
		items = append(items, map[string]any{
			"request_uid": request.UID,
			"type":        request.Type,
			"details":     request.Details,
			"created_at":  request.CreatedAt,
		})
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"requests": items,
	}))
}
