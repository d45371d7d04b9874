// Package history реализует HTTP-обработчик истории активаций подписки.
package history

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

// Service описывает интерфейс бизнес-логики истории подписки.
type Service interface {
	History(ctx context.Context, userUID string) ([]*models.SubscriptionRecord, error)
}

// Handler управляет HTTP-запросами на историю подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить историю активаций подписки
// @Tags Subscription
// @Produce  json
// @Success 200 {object} response.Response "История активаций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscription/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"

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

	records, err := h.service.History(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list subscription history", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list subscription history"))
		return
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		items = append(items, map[string]any{
			"plan":          record.Plan,
			"billing_cycle": record.BillingCycle,
			"amount":        record.Amount,
			"start_date":    record.StartDate,
			"end_date":      record.EndDate,
			"approved_by":   record.ApprovedBy,
		})
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"history": items,
	}))
}
