package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

func scanRequest(row interface{ Scan(...any) error }) (*models.OwnershipRequest, error) {
	r := &models.OwnershipRequest{}
	var details []byte
	if err := row.Scan(&r.UID, &r.UserUID, &r.UserName, &r.UserEmail,
		&r.Type, &details, &r.CreatedAt); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &r.Details); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// CreateOwnershipRequest сохраняет новую заявку владельца и возвращает её UID.
// Поле details хранится как jsonb.
func (s *Storage) CreateOwnershipRequest(ctx context.Context, request models.OwnershipRequest) (string, error) {
	const op = "storage.CreateOwnershipRequest"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	details, err := json.Marshal(request.Details)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newUID string
	query := `INSERT INTO ownership_requests (user_uid, user_name, user_email, type, details)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		request.UserUID, request.UserName, request.UserEmail,
		request.Type, details).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetOwnershipRequest возвращает заявку по UID в рамках владельца.
func (s *Storage) GetOwnershipRequest(ctx context.Context, requestUID, userUID string) (*models.OwnershipRequest, error) {
	const op = "storage.GetOwnershipRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, user_uid, user_name, user_email, type, details, created_at
			  FROM ownership_requests
			  WHERE uid = $1 AND user_uid = $2`
	r, err := scanRequest(s.DB.QueryRowContext(ctx, query, requestUID, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListOwnershipRequests возвращает заявки владельца, новые первыми.
func (s *Storage) ListOwnershipRequests(ctx context.Context, userUID string) ([]*models.OwnershipRequest, error) {
	const op = "storage.ListOwnershipRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, user_uid, user_name, user_email, type, details, created_at
			  FROM ownership_requests
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var requests []*models.OwnershipRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return requests, nil
}

// DeleteOwnershipRequest удаляет заявку в рамках владельца.
func (s *Storage) DeleteOwnershipRequest(ctx context.Context, requestUID, userUID string) error {
	const op = "storage.DeleteOwnershipRequest"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM ownership_requests WHERE uid = $1 AND user_uid = $2`, requestUID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
