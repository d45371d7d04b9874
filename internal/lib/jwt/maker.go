// Package jwt реализует выпуск и проверку JWT токенов с меткой назначения.
//
// Maker определяет интерфейс для выпуска и погашения токенов.
// Токены сессии и токены сброса пароля различаются полем purpose:
// токен одного назначения не принимается там, где ожидается другое.
package jwt

import (
	"errors"
	"time"
)

// Назначения токена.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"
)

// ErrInvalidToken возвращается при любой неуспешной проверке токена:
// неверная подпись, истёкший срок, повреждённый токен или несовпадение
// назначения. Причины намеренно не различаются.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает интерфейс для выпуска и погашения токенов.
type Maker interface {
	// Mint выпускает токен с идентификатором пользователя, почтой,
	// назначением и сроком жизни.
	Mint(userUID, email, purpose string, ttl time.Duration) (string, error)
	// Redeem проверяет токен и его назначение, возвращает claims.
	Redeem(tokenStr, wantPurpose string) (*Claims, error)
}

// MakerImpl реализует интерфейс Maker на секретном ключе HS256.
type MakerImpl struct {
	secretKey string
}

// NewMaker создаёт новый экземпляр MakerImpl.
func NewMaker(secretKey string) *MakerImpl {
	return &MakerImpl{secretKey: secretKey}
}
