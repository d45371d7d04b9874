// Package services содержит бизнес-логику профилей посетителей.
package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/magabrotheeeer/doorbell-backend/internal/lib/blob"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	"github.com/magabrotheeeer/doorbell-backend/internal/storage/repository"
)

// ErrVisitorNotFound возвращается, когда профиль не существует или
// принадлежит другому пользователю. Эти случаи не различаются.
var ErrVisitorNotFound = errors.New("visitor not found")

// VisitorRepository определяет методы работы с профилями посетителей.
type VisitorRepository interface {
	CreateVisitor(ctx context.Context, visitor models.Visitor) (string, error)
	GetVisitor(ctx context.Context, visitorUID, userUID string) (*models.Visitor, error)
	ListVisitors(ctx context.Context, userUID string) ([]*models.Visitor, error)
	UpdateVisitor(ctx context.Context, visitor models.Visitor) error
	DeleteVisitor(ctx context.Context, visitorUID, userUID string) error
}

// VisitorInput содержит данные формы создания или обновления профиля.
type VisitorInput struct {
	Name         string
	Email        string
	Phone        string
	Address      string
	Purpose      string
	Relationship string
}

// VisitorService реализует CRUD профилей посетителей с фотографиями
// в блоб-хранилище.
type VisitorService struct {
	repo   VisitorRepository
	images blob.Store
	log    *slog.Logger
}

// NewVisitorService создает новый экземпляр VisitorService.
func NewVisitorService(repo VisitorRepository, images blob.Store, log *slog.Logger) *VisitorService {
	return &VisitorService{repo: repo, images: images, log: log}
}

// Create создает профиль посетителя. Фото необязательно: при image == nil
// профиль создается без изображения.
func (s *VisitorService) Create(ctx context.Context, userUID string,
	input VisitorInput, image io.Reader) (*models.Visitor, error) {
	visitor := models.Visitor{
		UserUID:      userUID,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		Purpose:      input.Purpose,
		Relationship: input.Relationship,
	}

	if image != nil {
		url, fileName, err := s.images.Upload(ctx, image, "visitors")
		if err != nil {
			return nil, err
		}
		visitor.ImageURL = &url
		visitor.ImageFileName = &fileName
	}

	uid, err := s.repo.CreateVisitor(ctx, visitor)
	if err != nil {
		return nil, err
	}
	visitor.UID = uid

	s.log.Info("visitor created",
		slog.String("visitor_uid", uid),
		slog.String("user_uid", userUID))
	return &visitor, nil
}

// Get возвращает профиль посетителя владельца.
func (s *VisitorService) Get(ctx context.Context, visitorUID, userUID string) (*models.Visitor, error) {
	visitor, err := s.repo.GetVisitor(ctx, visitorUID, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, err
	}
	return visitor, nil
}

// List возвращает все профили посетителей владельца.
func (s *VisitorService) List(ctx context.Context, userUID string) ([]*models.Visitor, error) {
	return s.repo.ListVisitors(ctx, userUID)
}

// Update обновляет поля профиля. Новое фото заменяет прежнее, старый
// файл удаляется из блоб-хранилища.
func (s *VisitorService) Update(ctx context.Context, visitorUID, userUID string,
	input VisitorInput, image io.Reader) (*models.Visitor, error) {
	visitor, err := s.repo.GetVisitor(ctx, visitorUID, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, err
	}

	visitor.Name = input.Name
	visitor.Email = input.Email
	visitor.Phone = input.Phone
	visitor.Address = input.Address
	visitor.Purpose = input.Purpose
	visitor.Relationship = input.Relationship

	oldFileName := visitor.ImageFileName
	if image != nil {
		url, fileName, err := s.images.Upload(ctx, image, "visitors")
		if err != nil {
			return nil, err
		}
		visitor.ImageURL = &url
		visitor.ImageFileName = &fileName
	}

	if err := s.repo.UpdateVisitor(ctx, *visitor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, err
	}

	if image != nil && oldFileName != nil {
		if err := s.images.Delete(ctx, *oldFileName); err != nil {
			s.log.Warn("failed to delete replaced visitor image",
				slog.String("file_name", *oldFileName), sl.Err(err))
		}
	}

	s.log.Info("visitor updated",
		slog.String("visitor_uid", visitorUID),
		slog.String("user_uid", userUID))
	return visitor, nil
}

// Delete удаляет профиль вместе с фотографией.
func (s *VisitorService) Delete(ctx context.Context, visitorUID, userUID string) error {
	visitor, err := s.repo.GetVisitor(ctx, visitorUID, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVisitorNotFound
		}
		return err
	}

	if err := s.repo.DeleteVisitor(ctx, visitorUID, userUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVisitorNotFound
		}
		return err
	}

	if visitor.ImageFileName != nil {
		if err := s.images.Delete(ctx, *visitor.ImageFileName); err != nil {
			s.log.Warn("failed to delete visitor image",
				slog.String("file_name", *visitor.ImageFileName), sl.Err(err))
		}
	}

	s.log.Info("visitor deleted",
		slog.String("visitor_uid", visitorUID),
		slog.String("user_uid", userUID))
	return nil
}
