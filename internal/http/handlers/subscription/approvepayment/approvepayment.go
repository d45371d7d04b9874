// Package approvepayment реализует HTTP-обработчик одобрения заявки на оплату.
package approvepayment

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
	subservice "github.com/magabrotheeeer/doorbell-backend/internal/services/subscription"
)

// Service описывает интерфейс бизнес-логики одобрения оплаты.
type Service interface {
	ApprovePayment(ctx context.Context, paymentUID, approvedBy string) (*models.Payment, error)
}

// Handler управляет HTTP-запросами на одобрение оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Одобрить заявку на оплату
// @Description Одобряет pending-заявку и активирует подписку владельца заявки.
// @Tags Subscription
// @Produce  json
// @Param id path string true "UID заявки"
// @Success 200 {object} response.Response "Заявка одобрена"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscription/payments/{id}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.approvepayment"

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

	paymentUID := chi.URLParam(r, "id")
	if paymentUID == "" {
		log.Error("payment id missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("payment id is required"))
		return
	}

	payment, err := h.service.ApprovePayment(r.Context(), paymentUID, user.Email)
	if err != nil {
		switch {
		case errors.Is(err, subservice.ErrPaymentNotFound):
			log.Error("payment not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, subservice.ErrPaymentConflict):
			log.Error("payment already processed", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("payment already processed"))
		default:
			log.Error("failed to approve payment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to approve payment"))
		}
		return
	}

	log.Info("payment approved", slog.String("payment_uid", paymentUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_uid": payment.UID,
		"status":      payment.Status,
	}))
}
