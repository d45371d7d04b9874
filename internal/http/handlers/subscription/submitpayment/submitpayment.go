// Package submitpayment реализует HTTP-обработчик подачи подтверждения оплаты.
//
// Запрос приходит multipart-формой: поля тарифа и устройства плюс файл
// квитанции. Квитанция уходит в блоб-хранилище, заявка создаётся в статусе
// pending и ждёт ручной проверки.
package submitpayment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	subservice "github.com/magabrotheeeer/doorbell-backend/internal/services/subscription"
)

// максимальный размер multipart-формы с квитанцией
const maxFormSize = 10 << 20

// Request — поля multipart-формы подачи оплаты
type Request struct {
	DeviceID      string `validate:"required,len=12,alphanum"`
	Plan          string `validate:"required"`
	BillingCycle  string `validate:"required,oneof=monthly yearly"`
	ContactNumber string `validate:"required,min=5,max=20"`
}

// Service описывает интерфейс бизнес-логики подачи оплаты.
type Service interface {
	SubmitPayment(ctx context.Context, user *models.User, req subservice.SubmitPaymentRequest,
		receipt io.Reader) (*models.Payment, error)
}

// Handler управляет HTTP-запросами на подачу оплаты.
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
// @Summary Отправить подтверждение оплаты
// @Description Принимает multipart-форму с данными оплаты и файлом квитанции.
// @Tags Subscription
// @Accept  mpfd
// @Produce  json
// @Param device_id formData string true "Идентификатор устройства, 12 символов"
// @Param plan formData string true "Название тарифа"
// @Param billing_cycle formData string true "monthly или yearly"
// @Param contact_number formData string true "Контактный телефон"
// @Param receipt formData file true "Файл квитанции"
// @Success 200 {object} response.Response "Заявка создана"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 409 {object} response.ErrorResponse "Уже есть незакрытая заявка"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscription/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.submitpayment"

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

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	req := Request{
		DeviceID:      r.FormValue("device_id"),
		Plan:          r.FormValue("plan"),
		BillingCycle:  r.FormValue("billing_cycle"),
		ContactNumber: r.FormValue("contact_number"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	receipt, _, err := r.FormFile("receipt")
	if err != nil {
		log.Error("receipt file missing", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("receipt file is required"))
		return
	}
	defer func() { _ = receipt.Close() }()

	payment, err := h.service.SubmitPayment(r.Context(), user, subservice.SubmitPaymentRequest{
		DeviceID:      req.DeviceID,
		Plan:          req.Plan,
		BillingCycle:  req.BillingCycle,
		ContactNumber: req.ContactNumber,
	}, receipt)
	if err != nil {
		switch {
		case errors.Is(err, subservice.ErrPaymentPending):
			log.Error("pending payment already exists", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("a pending payment already exists"))
		case errors.Is(err, subservice.ErrPlanNotFound):
			log.Error("plan not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
		default:
			log.Error("failed to submit payment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to submit payment"))
		}
		return
	}

	log.Info("payment submitted", slog.String("payment_uid", payment.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_uid": payment.UID,
		"status":      payment.Status,
		"amount":      payment.Amount,
	}))
}
