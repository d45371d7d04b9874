package models

import "time"

// Visitor — профиль посетителя, принадлежащий пользователю.
// Изменение и удаление доступны только владельцу.
type Visitor struct {
	UID           string // Уникальный идентификатор профиля
	UserUID       string // Владелец профиля
	Name          string
	Email         string
	Phone         string
	Address       string
	Purpose       string // Цель визита
	Relationship  string // Отношение к владельцу
	ImageURL      *string // Ссылка на фото посетителя, nil если нет
	ImageFileName *string // Имя файла в блоб-хранилище для удаления
	CreatedAt     time.Time
}
