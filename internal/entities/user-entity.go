// Файл: internal/entities/user_entity.go
package entities

import (
	"inventory-system/pkg/constants"
	"inventory-system/pkg/types"
)

// User - участник, который бронирует оборудование. Аутентификация живет вне ядра,
// здесь нужны только роль и метка из студенческого пространства имен.
type User struct {
	ID           uint64         `json:"id" db:"id"`
	Fio          string         `json:"fio" db:"fio"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Role         constants.Role `json:"role" db:"role"`
	TagID        *int           `json:"tag_id,omitempty" db:"tag_id"`

	types.BaseEntity
}
