package constants

// Role - роль пользователя. Определяет политику бронирования.
type Role string

const (
	RoleStudent Role = "Student"
	RoleFaculty Role = "Faculty"
	RoleAdmin   Role = "Admin"
)

var RoleNames = map[Role]string{
	RoleStudent: "Студент",
	RoleFaculty: "Преподаватель",
	RoleAdmin:   "Администратор",
}

func (r Role) IsValid() bool {
	_, ok := RoleNames[r]
	return ok
}

// IsStaff - может одобрять и отклонять чужие брони.
func (r Role) IsStaff() bool {
	return r == RoleFaculty || r == RoleAdmin
}

// AutoApproves - брони преподавателя создаются сразу одобренными
// и не ограничены лимитом на пользователя.
func (r Role) AutoApproves() bool {
	return r == RoleFaculty
}
