package models

import "time"

// Типы заявок владельца.
const (
	RequestOwnershipTransfer   = "ownership_transfer"
	RequestBeneficialAllotment = "beneficial_allotment"
	RequestSecondaryOwnership  = "secondary_ownership"
)

// OwnershipRequest — заявка пользователя на передачу или расширение
// прав владения устройством. Детали заявки хранятся как JSON.
type OwnershipRequest struct {
	UID       string // Уникальный идентификатор заявки
	UserUID   string // Владелец заявки
	UserName  string
	UserEmail string
	Type      string          // ownership_transfer | beneficial_allotment | secondary_ownership
	Details   map[string]any  // Произвольные поля заявки
	CreatedAt time.Time
}
