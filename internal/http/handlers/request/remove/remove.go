// Package remove реализует HTTP-обработчик удаления заявки на владение.
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
	requestservice "github.com/magabrotheeeer/doorbell-backend/internal/services/request"
)

// Service описывает интерфейс бизнес-логики удаления заявки.
type Service interface {
	Delete(ctx context.Context, requestUID, userUID string) error
}

// Handler управляет HTTP-запросами на удаление заявки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить заявку на владение
// @Tags Requests
// @Produce  json
// @Param id path string true "UID заявки"
// @Success 200 {object} response.Response "Заявка удалена"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Security BearerAuth
// @Router /requests/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.remove"

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
	if err := h.service.Delete(r.Context(), requestUID, userUID); err != nil {
		if errors.Is(err, requestservice.ErrRequestNotFound) {
			log.Error("request not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
			return
		}
		log.Error("failed to delete ownership request", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete request"))
		return
	}

	log.Info("ownership request deleted", slog.String("request_uid", requestUID))
	render.JSON(w, r, response.OK())
}
