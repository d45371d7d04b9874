package models

// PaymentEvent описывает событие платежного цикла, публикуемое в RabbitMQ.
type PaymentEvent struct {
	Event        string  `json:"event"`
	PaymentUID   string  `json:"payment_uid"`
	UserUID      string  `json:"user_uid"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Plan         string  `json:"plan"`
	BillingCycle string  `json:"billing_cycle"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason,omitempty"`
	EndDate      string  `json:"end_date,omitempty"`
}
