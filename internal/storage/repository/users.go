package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

const userColumns = `uid, email, password_hash, name, is_verified,
		      otp_hash, otp_expires, otp_attempts, last_otp_request,
		      reset_otp_hash, reset_otp_expires,
		      subscription_status, subscription_plan,
		      subscription_start_date, subscription_end_date, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var otpHash, resetOTPHash, plan sql.NullString
	var otpExpires, lastOTPRequest, resetOTPExpires, subStart, subEnd sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.Name, &u.IsVerified,
		&otpHash, &otpExpires, &u.OTPAttempts, &lastOTPRequest,
		&resetOTPHash, &resetOTPExpires,
		&u.SubscriptionStatus, &plan, &subStart, &subEnd, &u.CreatedAt); err != nil {
		return nil, err
	}
	if otpHash.Valid {
		u.OTPHash = &otpHash.String
	}
	if otpExpires.Valid {
		u.OTPExpires = &otpExpires.Time
	}
	if lastOTPRequest.Valid {
		u.LastOTPRequest = &lastOTPRequest.Time
	}
	if resetOTPHash.Valid {
		u.ResetOTPHash = &resetOTPHash.String
	}
	if resetOTPExpires.Valid {
		u.ResetOTPExpires = &resetOTPExpires.Time
	}
	if plan.Valid {
		u.SubscriptionPlan = &plan.String
	}
	if subStart.Valid {
		u.SubscriptionStartDate = &subStart.Time
	}
	if subEnd.Valid {
		u.SubscriptionEndDate = &subEnd.Time
	}
	return u, nil
}

// CreateUser сохраняет нового непроверенного пользователя вместе с его
// первым OTP вызовом и возвращает UID. Дубликат почты возвращает ErrUserExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, password_hash, name, is_verified,
			      otp_hash, otp_expires, otp_attempts, last_otp_request,
			      subscription_status)
			  VALUES ($1, $2, $3, false, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name,
		user.OTPHash, user.OTPExpires, user.OTPAttempts, user.LastOTPRequest,
		models.SubscriptionNone).Scan(&newUID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// DeleteUser удаляет пользователя. Используется для отката регистрации,
// когда письмо с кодом не удалось отправить.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по почте в нижнем регистре.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetVerifyOTP записывает новый вызов OTP верификации: хэш, срок действия,
// время выдачи и инкремент общего счётчика выдач.
func (s *Storage) SetVerifyOTP(ctx context.Context, userUID, otpHash string, expires, requestedAt time.Time) error {
	const op = "storage.SetVerifyOTP"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET otp_hash = $1, otp_expires = $2,
			      last_otp_request = $3, otp_attempts = otp_attempts + 1
			  WHERE uid = $4`
	_, err := s.DB.ExecContext(ctx, query, otpHash, expires, requestedAt, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetResetOTP записывает новый вызов OTP сброса пароля. Счётчик выдач
// общий с OTP верификации.
func (s *Storage) SetResetOTP(ctx context.Context, userUID, otpHash string, expires, requestedAt time.Time) error {
	const op = "storage.SetResetOTP"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET reset_otp_hash = $1, reset_otp_expires = $2,
			      last_otp_request = $3, otp_attempts = otp_attempts + 1
			  WHERE uid = $4`
	_, err := s.DB.ExecContext(ctx, query, otpHash, expires, requestedAt, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkVerified отмечает пользователя проверенным и одним запросом
// очищает поля OTP верификации вместе со счётчиком.
func (s *Storage) MarkVerified(ctx context.Context, userUID string) error {
	const op = "storage.MarkVerified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_verified = true, otp_hash = NULL, otp_expires = NULL,
			      otp_attempts = 0
			  WHERE uid = $1`
	_, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClearResetOTP очищает поля OTP сброса пароля и счётчик выдач.
func (s *Storage) ClearResetOTP(ctx context.Context, userUID string) error {
	const op = "storage.ClearResetOTP"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET reset_otp_hash = NULL, reset_otp_expires = NULL, otp_attempts = 0
			  WHERE uid = $1`
	_, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePassword записывает новый хэш пароля и очищает поля OTP сброса.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1,
			      reset_otp_hash = NULL, reset_otp_expires = NULL, otp_attempts = 0
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, passwordHash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SetSubscriptionSnapshot обновляет снимок подписки в записи пользователя.
func (s *Storage) SetSubscriptionSnapshot(ctx context.Context, userUID, status, plan string, startDate, endDate time.Time) error {
	const op = "storage.SetSubscriptionSnapshot"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1, subscription_plan = $2,
			      subscription_start_date = $3, subscription_end_date = $4
			  WHERE uid = $5`
	_, err := s.DB.ExecContext(ctx, query, status, plan, startDate, endDate, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetSubscriptionStatus обновляет только статус снимка подписки.
func (s *Storage) SetSubscriptionStatus(ctx context.Context, userUID, status string) error {
	const op = "storage.SetSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, status, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
