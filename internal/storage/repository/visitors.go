package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

const visitorColumns = `uid, user_uid, name, email, phone, address, purpose,
			 relationship, image_url, image_file_name, created_at`

func scanVisitor(row interface{ Scan(...any) error }) (*models.Visitor, error) {
	v := &models.Visitor{}
	var imageURL, imageFileName sql.NullString
	if err := row.Scan(&v.UID, &v.UserUID, &v.Name, &v.Email, &v.Phone, &v.Address,
		&v.Purpose, &v.Relationship, &imageURL, &imageFileName, &v.CreatedAt); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		v.ImageURL = &imageURL.String
	}
	if imageFileName.Valid {
		v.ImageFileName = &imageFileName.String
	}
	return v, nil
}

// CreateVisitor сохраняет нового посетителя и возвращает его UID.
func (s *Storage) CreateVisitor(ctx context.Context, visitor models.Visitor) (string, error) {
	const op = "storage.CreateVisitor"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO visitors (user_uid, name, email, phone, address, purpose,
			      relationship, image_url, image_file_name)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		visitor.UserUID, visitor.Name, visitor.Email, visitor.Phone, visitor.Address,
		visitor.Purpose, visitor.Relationship, visitor.ImageURL, visitor.ImageFileName).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetVisitor возвращает посетителя по UID в рамках владельца. Чужая
// и отсутствующая записи неразличимы — обе дают ErrNotFound.
func (s *Storage) GetVisitor(ctx context.Context, visitorUID, userUID string) (*models.Visitor, error) {
	const op = "storage.GetVisitor"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors
			  WHERE uid = $1 AND user_uid = $2`
	v, err := scanVisitor(s.DB.QueryRowContext(ctx, query, visitorUID, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// ListVisitors возвращает посетителей владельца, новые первыми.
func (s *Storage) ListVisitors(ctx context.Context, userUID string) ([]*models.Visitor, error) {
	const op = "storage.ListVisitors"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var visitors []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return visitors, nil
}

// UpdateVisitor обновляет данные посетителя в рамках владельца.
func (s *Storage) UpdateVisitor(ctx context.Context, visitor models.Visitor) error {
	const op = "storage.UpdateVisitor"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE visitors
			  SET name = $1, email = $2, phone = $3, address = $4, purpose = $5,
			      relationship = $6, image_url = $7, image_file_name = $8
			  WHERE uid = $9 AND user_uid = $10`
	res, err := s.DB.ExecContext(ctx, query,
		visitor.Name, visitor.Email, visitor.Phone, visitor.Address, visitor.Purpose,
		visitor.Relationship, visitor.ImageURL, visitor.ImageFileName,
		visitor.UID, visitor.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// DeleteVisitor удаляет посетителя в рамках владельца.
func (s *Storage) DeleteVisitor(ctx context.Context, visitorUID, userUID string) error {
	const op = "storage.DeleteVisitor"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM visitors WHERE uid = $1 AND user_uid = $2`, visitorUID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
