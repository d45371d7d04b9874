// Package period содержит расчёты границ оплаченного периода подписки.
package period

import (
	"time"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

// EndDate возвращает дату окончания оплаченного периода: месяц для
// месячного цикла и год для годового, отсчёт от момента одобрения.
func EndDate(start time.Time, billingCycle string) time.Time {
	if billingCycle == models.CycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// DaysLeft возвращает количество полных дней до конца периода,
// отрицательное значение означает просроченную подписку.
func DaysLeft(endDate, now time.Time) int {
	return int(endDate.Sub(now).Hours() / 24)
}

// Expired сообщает, закончился ли оплаченный период.
func Expired(endDate, now time.Time) bool {
	return endDate.Before(now)
}
