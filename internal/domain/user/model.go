package user

import "time"

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleTeam       Role = "team"
)

var roleLevel = map[Role]int{
	RoleSuperadmin: 3,
	RoleAdmin:      2,
	RoleTeam:       1,
}

func (r Role) Valid() bool {
	_, ok := roleLevel[r]
	return ok
}

// AtLeast сообщает, что роль не ниже min по иерархии superadmin > admin > team.
func (r Role) AtLeast(min Role) bool {
	return roleLevel[r] >= roleLevel[min]
}

type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	FirstName    string
	LastName     string
	Role         Role
	TenantID     string // пусто только у superadmin
	IsActive     bool
	CreatedAt    time.Time
}

// RegisterInput - данные для создания пользователя (из CLI сервера).
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      Role
	TenantID  string
}
