package models

import "time"

// SubscriptionRecord — неизменяемая запись одной активации подписки.
// Создаётся один раз при одобрении платежа; продление добавляет новую
// запись, а не редактирует существующую.
type SubscriptionRecord struct {
	UID          string  // Уникальный идентификатор записи
	UserUID      string  // Владелец подписки
	PaymentUID   string  // Платёж, породивший активацию
	Plan         string  // Тариф в нижнем регистре
	BillingCycle string  // monthly | yearly
	Amount       float64 // Сумма платежа
	Status       string  // active
	StartDate    time.Time
	EndDate      time.Time
	ApprovedBy   string
	ApprovedAt   time.Time
	CreatedAt    time.Time
}

// Plan описывает тариф из каталога подписок.
type Plan struct {
	UID          string  // Уникальный идентификатор тарифа
	Name         string  // basic | premium | business
	MonthlyPrice float64 // Цена за месяц
	YearlyPrice  float64 // Цена за год
	Description  string
}
