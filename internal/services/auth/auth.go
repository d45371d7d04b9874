// Package services содержит логику бизнес-уровня для регистрации,
// верификации аккаунта и восстановления пароля через одноразовые коды.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/doorbell-backend/internal/config"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/otp"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/password"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	"github.com/magabrotheeeer/doorbell-backend/internal/storage/repository"
)

// Ошибки бизнес-уровня, по которым обработчики выбирают HTTP статус.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrNoChallenge        = errors.New("no active verification code")
	ErrOTPExpired         = errors.New("verification code has expired")
	ErrOTPMismatch        = errors.New("verification code does not match")
	ErrRateLimited        = errors.New("too many code requests")
	ErrEmailDelivery      = errors.New("failed to deliver email")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	DeleteUser(ctx context.Context, userUID string) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetVerifyOTP(ctx context.Context, userUID, otpHash string, expires, requestedAt time.Time) error
	SetResetOTP(ctx context.Context, userUID, otpHash string, expires, requestedAt time.Time) error
	MarkVerified(ctx context.Context, userUID string) error
	ClearResetOTP(ctx context.Context, userUID string) error
	UpdatePassword(ctx context.Context, userUID, passwordHash string) error
}

// CodeSender описывает отправку одноразовых кодов на почту.
type CodeSender interface {
	SendVerificationCode(to, name, code string) error
	SendPasswordResetCode(to, name, code string) error
}

// AuthService отвечает за регистрацию, верификацию, вход и сброс пароля.
type AuthService struct {
	users    UserRepository
	sender   CodeSender
	jwtMaker jwt.Maker
	cfg      config.OTP
	jwtCfg   config.JWTToken
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, sender CodeSender, jwtMaker jwt.Maker,
	otpCfg config.OTP, jwtCfg config.JWTToken, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sender:   sender,
		jwtMaker: jwtMaker,
		cfg:      otpCfg,
		jwtCfg:   jwtCfg,
		log:      log,
	}
}

// NormalizeEmail приводит почту к каноническому виду для хранения и поиска.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает нового непроверенного пользователя и отправляет код
// верификации на почту. Если письмо отправить не удалось, пользователь
// удаляется и регистрация считается несостоявшейся. Повторная регистрация
// непроверенного аккаунта не ошибка: ему просто выдается новый код, без
// отката при сбое отправки. Занятой считается только проверенная почта.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (string, error) {
	email = NormalizeEmail(email)

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}

	code, err := otp.Generate(s.cfg.CodeLength)
	if err != nil {
		return "", err
	}
	codeHash, err := otp.GetHash(code)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	expires := now.Add(s.cfg.CodeTTL)
	user := models.User{
		Email:          email,
		PasswordHash:   hashed,
		Name:           name,
		OTPHash:        &codeHash,
		OTPExpires:     &expires,
		OTPAttempts:    1,
		LastOTPRequest: &now,
	}

	userUID, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			existing, getErr := s.users.GetUserByEmail(ctx, email)
			if getErr != nil {
				return "", getErr
			}
			if existing.IsVerified {
				return "", ErrUserExists
			}
			if err := s.reissueVerifyOTP(ctx, existing); err != nil {
				return "", err
			}
			return existing.UID, nil
		}
		return "", err
	}

	if err := s.sender.SendVerificationCode(email, name, code); err != nil {
		s.log.Error("failed to send verification code, rolling back registration",
			slog.String("email", email), sl.Err(err))
		if delErr := s.users.DeleteUser(ctx, userUID); delErr != nil {
			s.log.Error("failed to delete user after email failure", sl.Err(delErr))
		}
		return "", ErrEmailDelivery
	}

	return userUID, nil
}

// VerifyOTP сверяет код верификации и отмечает аккаунт проверенным.
// При успехе возвращает сессионный токен и пользователя.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, *models.User, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	if user.IsVerified {
		return "", nil, ErrAlreadyVerified
	}
	if user.OTPHash == nil || user.OTPExpires == nil {
		return "", nil, ErrNoChallenge
	}
	if user.OTPExpires.Before(time.Now().UTC()) {
		return "", nil, ErrOTPExpired
	}
	if err := otp.CompareHash(*user.OTPHash, code); err != nil {
		return "", nil, ErrOTPMismatch
	}

	if err := s.users.MarkVerified(ctx, user.UID); err != nil {
		return "", nil, err
	}
	user.IsVerified = true
	user.OTPHash = nil
	user.OTPExpires = nil
	user.OTPAttempts = 0

	token, err := s.jwtMaker.Mint(user.UID, user.Email, jwt.PurposeSession, s.jwtCfg.SessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResendOTP выдает новый код верификации, не откатывая пользователя при
// сбое отправки. Действует общий лимит выдач кодов в час.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	return s.reissueVerifyOTP(ctx, user)
}

// reissueVerifyOTP выдает непроверенному пользователю новый код верификации.
// Пользователь при сбое отправки не откатывается, код остается записанным.
func (s *AuthService) reissueVerifyOTP(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if !user.CanRequestOTP(now, s.cfg.MaxPerHour) {
		return ErrRateLimited
	}

	code, err := otp.Generate(s.cfg.CodeLength)
	if err != nil {
		return err
	}
	codeHash, err := otp.GetHash(code)
	if err != nil {
		return err
	}
	if err := s.users.SetVerifyOTP(ctx, user.UID, codeHash, now.Add(s.cfg.CodeTTL), now); err != nil {
		return err
	}

	if err := s.sender.SendVerificationCode(user.Email, user.Name, code); err != nil {
		s.log.Error("failed to send verification code", slog.String("email", user.Email), sl.Err(err))
		return ErrEmailDelivery
	}
	return nil
}

// Login проверяет пароль пользователя и выдает сессионный токен.
// Непроверенный аккаунт войти не может.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, ErrNotVerified
	}

	token, err := s.jwtMaker.Mint(user.UID, user.Email, jwt.PurposeSession, s.jwtCfg.SessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ForgotPassword выдает код сброса пароля. Доступно только проверенным
// аккаунтам, лимит выдач общий с кодами верификации.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.IsVerified {
		return ErrNotVerified
	}

	now := time.Now().UTC()
	if !user.CanRequestOTP(now, s.cfg.MaxPerHour) {
		return ErrRateLimited
	}

	code, err := otp.Generate(s.cfg.CodeLength)
	if err != nil {
		return err
	}
	codeHash, err := otp.GetHash(code)
	if err != nil {
		return err
	}
	if err := s.users.SetResetOTP(ctx, user.UID, codeHash, now.Add(s.cfg.CodeTTL), now); err != nil {
		return err
	}

	if err := s.sender.SendPasswordResetCode(email, user.Name, code); err != nil {
		s.log.Error("failed to send password reset code", slog.String("email", email), sl.Err(err))
		return ErrEmailDelivery
	}
	return nil
}

// VerifyResetOTP сверяет код сброса и выдает короткоживущий токен,
// дающий право сменить пароль. Код после успеха гасится.
func (s *AuthService) VerifyResetOTP(ctx context.Context, email, code string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.ResetOTPHash == nil || user.ResetOTPExpires == nil {
		return "", ErrNoChallenge
	}
	if user.ResetOTPExpires.Before(time.Now().UTC()) {
		return "", ErrOTPExpired
	}
	if err := otp.CompareHash(*user.ResetOTPHash, code); err != nil {
		return "", ErrOTPMismatch
	}

	if err := s.users.ClearResetOTP(ctx, user.UID); err != nil {
		return "", err
	}

	return s.jwtMaker.Mint(user.UID, user.Email, jwt.PurposePasswordReset, s.jwtCfg.ResetTTL)
}

// ResetPassword меняет пароль по токену сброса.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.jwtMaker.Redeem(resetToken, jwt.PurposePasswordReset)
	if err != nil {
		return err
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, claims.UserUID, hashed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ValidateToken проверяет сессионный токен и возвращает пользователя.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.Redeem(token, jwt.PurposeSession)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CheckEmail сообщает, занята ли почта и проверен ли аккаунт.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (exists, verified bool, err error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, user.IsVerified, nil
}
