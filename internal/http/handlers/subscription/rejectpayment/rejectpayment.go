// Package rejectpayment реализует HTTP-обработчик отклонения заявки на оплату.
package rejectpayment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	subservice "github.com/magabrotheeeer/doorbell-backend/internal/services/subscription"
)

// Request — входные данные для отклонения заявки
type Request struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Service описывает интерфейс бизнес-логики отклонения оплаты.
type Service interface {
	RejectPayment(ctx context.Context, paymentUID, reason, rejectedBy string) (*models.Payment, error)
}

// Handler управляет HTTP-запросами на отклонение оплаты.
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
// @Summary Отклонить заявку на оплату
// @Description Отклоняет pending-заявку с причиной, сохраняемой дословно.
// @Tags Subscription
// @Accept  json
// @Produce  json
// @Param id path string true "UID заявки"
// @Param request body Request true "Причина отклонения"
// @Success 200 {object} response.Response "Заявка отклонена"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscription/payments/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.rejectpayment"

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

	payment, err := h.service.RejectPayment(r.Context(), paymentUID, req.Reason, user.Email)
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
			log.Error("failed to reject payment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to reject payment"))
		}
		return
	}

	log.Info("payment rejected", slog.String("payment_uid", paymentUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_uid": payment.UID,
		"status":      payment.Status,
	}))
}
