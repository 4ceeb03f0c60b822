package dto

import "inventory-system/internal/entities"

type CreateUserDTO struct {
	Fio      string `json:"fio" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=Student Faculty Admin"`
}

type UserPublicDTO struct {
	ID    uint64 `json:"id"`
	Fio   string `json:"fio"`
	Email string `json:"email"`
	Role  string `json:"role"`
	TagID string `json:"tag_id,omitempty"`
}

func NewUserPublicDTO(u *entities.User) UserPublicDTO {
	res := UserPublicDTO{
		ID:    u.ID,
		Fio:   u.Fio,
		Email: u.Email,
		Role:  string(u.Role),
	}
	if u.TagID != nil {
		res.TagID = entities.FormatTagID(*u.TagID)
	}
	return res
}
