// Package create реализует HTTP-обработчик создания профиля посетителя.
//
// Запрос приходит multipart-формой: поля профиля плюс необязательный файл фото.
package create

import (
	"context"
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
	visitorservice "github.com/magabrotheeeer/doorbell-backend/internal/services/visitor"
)

const maxFormSize = 10 << 20

// Request — поля multipart-формы профиля посетителя
type Request struct {
	Name         string `validate:"required,min=2,max=100"`
	Email        string `validate:"omitempty,email"`
	Phone        string `validate:"omitempty,max=20"`
	Address      string `validate:"omitempty,max=200"`
	Purpose      string `validate:"omitempty,max=200"`
	Relationship string `validate:"omitempty,max=100"`
}

// Service описывает интерфейс бизнес-логики создания профиля.
type Service interface {
	Create(ctx context.Context, userUID string, input visitorservice.VisitorInput,
		image io.Reader) (*models.Visitor, error)
}

// Handler управляет HTTP-запросами на создание профиля посетителя.
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
// @Summary Создать профиль посетителя
// @Tags Visitors
// @Accept  mpfd
// @Produce  json
// @Param name formData string true "Имя посетителя"
// @Param image formData file false "Фото посетителя"
// @Success 200 {object} response.Response "Профиль создан"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /visitors [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visitor.create"

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

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	req := Request{
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		Address:      r.FormValue("address"),
		Purpose:      r.FormValue("purpose"),
		Relationship: r.FormValue("relationship"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var image io.Reader
	if file, _, err := r.FormFile("image"); err == nil {
		defer func() { _ = file.Close() }()
		image = file
	}

	visitor, err := h.service.Create(r.Context(), userUID, visitorservice.VisitorInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Purpose:      req.Purpose,
		Relationship: req.Relationship,
	}, image)
	if err != nil {
		log.Error("failed to create visitor", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create visitor"))
		return
	}

	log.Info("visitor created", slog.String("visitor_uid", visitor.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"visitor_uid": visitor.UID,
	}))
}
