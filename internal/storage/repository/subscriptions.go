package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

// CreateSubscriptionRecord добавляет неизменяемую запись об активации
// подписки и возвращает её UID. Записи никогда не обновляются.
func (s *Storage) CreateSubscriptionRecord(ctx context.Context, record models.SubscriptionRecord) (string, error) {
	const op = "storage.CreateSubscriptionRecord"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO user_subscriptions (user_uid, payment_uid, plan, billing_cycle,
			      amount, status, start_date, end_date, approved_by, approved_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		record.UserUID, record.PaymentUID, record.Plan, record.BillingCycle,
		record.Amount, record.Status, record.StartDate, record.EndDate,
		record.ApprovedBy, record.ApprovedAt).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// ListSubscriptionRecords возвращает историю активаций пользователя,
// новые первыми.
func (s *Storage) ListSubscriptionRecords(ctx context.Context, userUID string) ([]*models.SubscriptionRecord, error) {
	const op = "storage.ListSubscriptionRecords"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, user_uid, payment_uid, plan, billing_cycle, amount,
			      status, start_date, end_date, approved_by, approved_at, created_at
			  FROM user_subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.SubscriptionRecord
	for rows.Next() {
		r := &models.SubscriptionRecord{}
		if err := rows.Scan(&r.UID, &r.UserUID, &r.PaymentUID, &r.Plan, &r.BillingCycle,
			&r.Amount, &r.Status, &r.StartDate, &r.EndDate,
			&r.ApprovedBy, &r.ApprovedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// ListPlans возвращает все тарифы, отсортированные по месячной цене.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, monthly_price, yearly_price, description
			  FROM subscription_plans
			  ORDER BY monthly_price`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var plans []*models.Plan
	for rows.Next() {
		p := &models.Plan{}
		if err := rows.Scan(&p.UID, &p.Name, &p.MonthlyPrice, &p.YearlyPrice, &p.Description); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// GetPlanByName возвращает тариф по имени в нижнем регистре.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	const op = "storage.GetPlanByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p := &models.Plan{}
	query := `SELECT uid, name, monthly_price, yearly_price, description
			  FROM subscription_plans
			  WHERE name = $1`
	if err := s.DB.QueryRowContext(ctx, query, name).Scan(
		&p.UID, &p.Name, &p.MonthlyPrice, &p.YearlyPrice, &p.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
