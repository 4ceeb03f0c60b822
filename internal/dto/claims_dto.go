package dto

import "inventory-system/pkg/constants"

// UserClaims - личность, которую auth-мидлвар кладет в контекст запроса.
type UserClaims struct {
	UserID uint64
	Role   constants.Role
}
