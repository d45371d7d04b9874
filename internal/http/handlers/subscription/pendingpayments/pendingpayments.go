// Package pendingpayments реализует HTTP-обработчик списка заявок на проверку.
package pendingpayments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики списка заявок.
type Service interface {
	ListPendingPayments(ctx context.Context) ([]*models.Payment, error)
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
// @Summary Получить заявки, ожидающие проверки
// @Tags Subscription
// @Produce  json
// @Success 200 {object} response.Response "Список заявок"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscription/payments/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.pendingpayments"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payments, err := h.service.ListPendingPayments(r.Context())
	if err != nil {
		log.Error("failed to list pending payments", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list pending payments"))
		return
	}

	items := make([]map[string]any, 0, len(payments))
	for _, payment := range payments {
		items = append(items, map[string]any{
			"payment_uid":    payment.UID,
			"user_name":      payment.UserName,
			"email":          payment.Email,
			"device_id":      payment.DeviceID,
			"plan":           payment.Plan,
			"billing_cycle":  payment.BillingCycle,
			"amount":         payment.Amount,
			"receipt_url":    payment.ReceiptURL,
			"contact_number": payment.ContactNumber,
			"created_at":     payment.CreatedAt,
		})
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payments": items,
	}))
}
