package dto

type NextTagQueryDTO struct {
	Namespace string `query:"namespace" validate:"required,namespace"`
}

type TagDTO struct {
	Namespace string `json:"namespace"`
	TagID     string `json:"tag_id"`
}
