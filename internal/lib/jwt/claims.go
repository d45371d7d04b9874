package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims описывает пользовательские данные, хранящиеся в токене.
type Claims struct {
	UserUID              string `json:"user_uid"` // Идентификатор пользователя
	Email                string `json:"email"`    // Почта пользователя
	Purpose              string `json:"purpose"`  // session | password_reset
	jwt.RegisteredClaims        // Стандартные claims (ExpiresAt, IssuedAt и пр.)
}

// Mint выпускает подписанный токен с заданным назначением и сроком жизни.
func (m *MakerImpl) Mint(userUID, email, purpose string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserUID: userUID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// Redeem разбирает токен, проверяет подпись, срок действия и назначение.
// Все виды отказа сводятся к ErrInvalidToken, чтобы не раскрывать,
// какая именно проверка не прошла.
func (m *MakerImpl) Redeem(tokenStr, wantPurpose string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.secretKey), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != wantPurpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
