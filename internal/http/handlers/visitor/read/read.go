// Package read реализует HTTP-обработчик выдачи профиля посетителя.
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
	visitorservice "github.com/magabrotheeeer/doorbell-backend/internal/services/visitor"
)

// Service описывает интерфейс бизнес-логики выдачи профиля.
type Service interface {
	Get(ctx context.Context, visitorUID, userUID string) (*models.Visitor, error)
}

// Handler управляет HTTP-запросами на выдачу профиля посетителя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить профиль посетителя
// @Tags Visitors
// @Produce  json
// @Param id path string true "UID профиля"
// @Success 200 {object} response.Response "Профиль посетителя"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Security BearerAuth
// @Router /visitors/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visitor.read"

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
	visitor, err := h.service.Get(r.Context(), visitorUID, userUID)
	if err != nil {
		if errors.Is(err, visitorservice.ErrVisitorNotFound) {
			log.Error("visitor not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("visitor not found"))
			return
		}
		log.Error("failed to get visitor", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get visitor"))
		return
	}

	render.JSON(w, r, response.OKWithData(visitorView(visitor)))
}

func visitorView(v *models.Visitor) map[string]any {
	view := map[string]any{
		"visitor_uid":  v.UID,
		"name":         v.Name,
		"email":        v.Email,
		"phone":        v.Phone,
		"address":      v.Address,
		"purpose":      v.Purpose,
		"relationship": v.Relationship,
		"created_at":   v.CreatedAt,
	}
	if v.ImageURL != nil {
		view["image_url"] = *v.ImageURL
	}
	return view
}
