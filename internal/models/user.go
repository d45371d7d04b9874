// Package models содержит доменные структуры пользователя, платежей,
// подписок и сущностей, принадлежащих пользователю (посетители, заявки).
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки в снимке пользователя.
const (
	SubscriptionNone    = "none"
	SubscriptionPending = "pending"
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// User представляет зарегистрированного пользователя системы.
// Поля OTP верификации и OTP сброса пароля хранятся парами hash/expiry:
// либо оба заполнены, либо оба nil. Счётчик OTP запросов общий для
// обеих целей.
type User struct {
	UID          string // Уникальный идентификатор пользователя
	Email        string // Электронная почта, хранится в нижнем регистре
	PasswordHash string // bcrypt-хэш пароля
	Name         string // Отображаемое имя
	IsVerified   bool   // Подтверждён ли адрес почты

	OTPHash        *string    // bcrypt-хэш кода верификации
	OTPExpires     *time.Time // Срок действия кода верификации
	OTPAttempts    int        // Количество выдач OTP в текущем окне
	LastOTPRequest *time.Time // Время последней выдачи OTP

	ResetOTPHash    *string    // bcrypt-хэш кода сброса пароля
	ResetOTPExpires *time.Time // Срок действия кода сброса

	SubscriptionStatus    string     // none | pending | active | expired
	SubscriptionPlan      *string    // basic | premium | business, nil если нет
	SubscriptionStartDate *time.Time // Начало оплаченного периода
	SubscriptionEndDate   *time.Time // Конец оплаченного периода

	CreatedAt time.Time
}

// CanRequestOTP сообщает, разрешена ли пользователю новая выдача OTP.
// Разрешено, если выдач ещё не было, если последняя выдача старше часа,
// или если количество выдач внутри часового окна меньше max.
func (u *User) CanRequestOTP(now time.Time, max int) bool {
	if u.LastOTPRequest == nil {
		return true
	}
	if u.LastOTPRequest.Before(now.Add(-time.Hour)) {
		return true
	}
	return u.OTPAttempts < max
}
