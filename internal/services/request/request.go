// Package services содержит бизнес-логику заявок на владение устройством.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	"github.com/magabrotheeeer/doorbell-backend/internal/storage/repository"
)

// Ошибки бизнес-уровня заявок.
var (
	ErrRequestNotFound    = errors.New("ownership request not found")
	ErrUnknownRequestType = errors.New("unknown ownership request type")
)

// RequestRepository определяет методы работы с заявками в хранилище.
type RequestRepository interface {
	CreateOwnershipRequest(ctx context.Context, request models.OwnershipRequest) (string, error)
	GetOwnershipRequest(ctx context.Context, requestUID, userUID string) (*models.OwnershipRequest, error)
	ListOwnershipRequests(ctx context.Context, userUID string) ([]*models.OwnershipRequest, error)
	DeleteOwnershipRequest(ctx context.Context, requestUID, userUID string) error
}

// RequestService реализует операции с заявками на владение.
type RequestService struct {
	repo RequestRepository
	log  *slog.Logger
}

// NewRequestService создает новый экземпляр RequestService.
func NewRequestService(repo RequestRepository, log *slog.Logger) *RequestService {
	return &RequestService{repo: repo, log: log}
}

func validRequestType(t string) bool {
	switch t {
	case models.RequestOwnershipTransfer,
		models.RequestBeneficialAllotment,
		models.RequestSecondaryOwnership:
		return true
	}
	return false
}

// Create создает заявку от имени пользователя. Детали сохраняются
// как есть, без интерпретации.
func (s *RequestService) Create(ctx context.Context, user *models.User,
	requestType string, details map[string]any) (*models.OwnershipRequest, error) {
	if !validRequestType(requestType) {
		return nil, ErrUnknownRequestType
	}

	request := models.OwnershipRequest{
		UserUID:   user.UID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Type:      requestType,
		Details:   details,
	}
	uid, err := s.repo.CreateOwnershipRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	request.UID = uid

	s.log.Info("ownership request created",
		slog.String("request_uid", uid),
		slog.String("user_uid", user.UID),
		slog.String("type", requestType))
	return &request, nil
}

// Get возвращает заявку владельца.
func (s *RequestService) Get(ctx context.Context, requestUID, userUID string) (*models.OwnershipRequest, error) {
	request, err := s.repo.GetOwnershipRequest(ctx, requestUID, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// List возвращает все заявки владельца.
func (s *RequestService) List(ctx context.Context, userUID string) ([]*models.OwnershipRequest, error) {
	return s.repo.ListOwnershipRequests(ctx, userUID)
}

// Delete удаляет заявку владельца.
func (s *RequestService) Delete(ctx context.Context, requestUID, userUID string) error {
	if err := s.repo.DeleteOwnershipRequest(ctx, requestUID, userUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRequestNotFound
		}
		return err
	}

	s.log.Info("ownership request deleted",
		slog.String("request_uid", requestUID),
		slog.String("user_uid", userUID))
	return nil
}
