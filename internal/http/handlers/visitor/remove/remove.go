// Package remove реализует HTTP-обработчик удаления профиля посетителя.
package remove

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
	visitorservice "github.com/magabrotheeeer/doorbell-backend/internal/services/visitor"
)

// Service описывает интерфейс бизнес-логики удаления профиля.
type Service interface {
	Delete(ctx context.Context, visitorUID, userUID string) error
}

// Handler управляет HTTP-запросами на удаление профиля посетителя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить профиль посетителя
// @Tags Visitors
// @Produce  json
// @Param id path string true "UID профиля"
// @Success 200 {object} response.Response "Профиль удалён"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Security BearerAuth
// @Router /visitors/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visitor.remove"

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

	visitorUID := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), visitorUID, userUID); err != nil {
		if errors.Is(err, visitorservice.ErrVisitorNotFound) {
			log.Error("visitor not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("visitor not found"))
			return
		}
		log.Error("failed to delete visitor", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete visitor"))
		return
	}

	log.Info("visitor deleted", slog.String("visitor_uid", visitorUID))
	render.JSON(w, r, response.OK())
}
