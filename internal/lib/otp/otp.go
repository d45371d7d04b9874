// Package otp реализует генерацию и проверку одноразовых числовых кодов.
//
// Generate создает код фиксированной длины на основе crypto/rand.
// GetHash и CompareHash работают с bcrypt-хэшем кода: в хранилище
// попадает только хэш, сам код уходит пользователю по почте.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// DefaultLength — длина кода по умолчанию.
const DefaultLength = 6

// Generate возвращает числовой код заданной длины.
func Generate(length int) (string, error) {
	const op = "otp.Generate"
	if length <= 0 {
		length = DefaultLength
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// GetHash возвращает bcrypt-хэш кода для хранения.
func GetHash(code string) (string, error) {
	const op = "otp.GetHash"
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hash), nil
}

// CompareHash сравнивает сохранённый хэш с предъявленным кодом.
// Возвращает nil при совпадении.
func CompareHash(hash, code string) error {
	const op = "otp.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
