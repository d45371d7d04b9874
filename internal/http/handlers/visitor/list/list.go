// Package list реализует HTTP-обработчик списка профилей посетителей.
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

// Service описывает интерфейс бизнес-логики списка профилей.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.Visitor, error)
}

// Handler управляет HTTP-запросами на список профилей посетителей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить профили посетителей
// @Tags Visitors
// @Produce  json
// @Success 200 {object} response.Response "Список профилей"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /visitors [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visitor.list"

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

	visitors, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list visitors", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list visitors"))
		return
	}

	items := make([]map[string]any, 0, len(visitors))
	for _, v := range visitors {
		item := map[string]any{
			"visitor_uid":  v.UID,
			"name":         v.Name,
			"purpose":      v.Purpose,
			"relationship": v.Relationship,
			"created_at":   v.CreatedAt,
		}
		if v.ImageURL != nil {
			item["image_url"] = *v.ImageURL
		}
		items = append(items, item)
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"visitors": items,
	}))
}
