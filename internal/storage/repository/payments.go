package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

const paymentColumns = `uid, user_uid, user_name, email, contact_number,
			 device_id, plan, billing_cycle, amount, receipt_url,
			 status, approved_by, approved_at, rejection_reason, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var approvedBy, rejectionReason sql.NullString
	var approvedAt sql.NullTime
	if err := row.Scan(&p.UID, &p.UserUID, &p.UserName, &p.Email, &p.ContactNumber,
		&p.DeviceID, &p.Plan, &p.BillingCycle, &p.Amount, &p.ReceiptURL,
		&p.Status, &approvedBy, &approvedAt, &rejectionReason, &p.CreatedAt); err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		p.ApprovedBy = &approvedBy.String
	}
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	if rejectionReason.Valid {
		p.RejectionReason = &rejectionReason.String
	}
	return p, nil
}

// CreatePayment сохраняет новую заявку на оплату и возвращает её UID.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (string, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO payments (user_uid, user_name, email, contact_number,
			      device_id, plan, billing_cycle, amount, receipt_url, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		payment.UserUID, payment.UserName, payment.Email, payment.ContactNumber,
		payment.DeviceID, payment.Plan, payment.BillingCycle, payment.Amount,
		payment.ReceiptURL, payment.Status).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetPayment возвращает заявку по её UID.
func (s *Storage) GetPayment(ctx context.Context, paymentUID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE uid = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FindPendingPayment ищет незакрытую заявку пользователя. У пользователя
// может быть не больше одной заявки в статусе pending.
func (s *Storage) FindPendingPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	const op = "storage.FindPendingPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, userUID, models.PaymentPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FindReconcilablePayment ищет последнюю подтверждённую заявку пользователя,
// подписка по которой ещё не активирована.
func (s *Storage) FindReconcilablePayment(ctx context.Context, userUID string) (*models.Payment, error) {
	const op = "storage.FindReconcilablePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, userUID, models.PaymentConfirmed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FindLatestRejectedPayment возвращает последнюю отклонённую заявку
// пользователя, чтобы показать ему причину отказа.
func (s *Storage) FindLatestRejectedPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	const op = "storage.FindLatestRejectedPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, userUID, models.PaymentRejected))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByStatus возвращает заявки в заданном статусе, новые первыми.
func (s *Storage) ListPaymentsByStatus(ctx context.Context, status string) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE status = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// ApprovePaymentIf переводит заявку из статуса fromStatus в approved и
// записывает кто и когда её одобрил. Возвращает число изменённых строк,
// 0 — если заявка уже ушла из fromStatus.
func (s *Storage) ApprovePaymentIf(ctx context.Context, paymentUID, fromStatus, approvedBy string, approvedAt time.Time) (int64, error) {
	const op = "storage.ApprovePaymentIf"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, approved_by = $2, approved_at = $3
			  WHERE uid = $4 AND status = $5`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentApproved, approvedBy, approvedAt, paymentUID, fromStatus)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// RejectPaymentIf переводит заявку из статуса fromStatus в rejected,
// сохраняет причину отказа дословно и записывает кто и когда её отклонил.
// Колонки аудита общие с одобрением. Возвращает число изменённых строк.
func (s *Storage) RejectPaymentIf(ctx context.Context, paymentUID, fromStatus, reason, rejectedBy string, rejectedAt time.Time) (int64, error) {
	const op = "storage.RejectPaymentIf"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, rejection_reason = $2, approved_by = $3, approved_at = $4
			  WHERE uid = $5 AND status = $6`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentRejected, reason, rejectedBy, rejectedAt, paymentUID, fromStatus)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
