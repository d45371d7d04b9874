package models

import "time"

// Статусы платежа. Статус confirmed выставляется внешним порталом
// оплаты и доводится до approved при сверке статуса подписки.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentApproved  = "approved"
	PaymentRejected  = "rejected"
)

// Циклы оплаты.
const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// Payment представляет одну отправку подтверждения оплаты.
// У пользователя может быть не более одного платежа в статусе pending.
type Payment struct {
	UID             string  // Уникальный идентификатор платежа
	UserUID         string  // Владелец платежа
	UserName        string  // Имя, указанное при отправке
	Email           string  // Почта владельца на момент отправки
	ContactNumber   string  // Контактный телефон
	DeviceID        string  // Идентификатор устройства, ровно 12 букв/цифр
	Plan            string  // Выбранный тариф
	BillingCycle    string  // monthly | yearly
	Amount          float64 // Итоговая сумма
	ReceiptURL      string  // Ссылка на загруженный чек
	Status          string  // pending | confirmed | approved | rejected
	ApprovedBy      *string // Кто одобрил или отклонил
	ApprovedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time
}
