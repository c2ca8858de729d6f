package auth

import "time"

type loginInput struct {
	Body LoginRequest
}

type loginOutput struct {
	Body LoginResponse
}

type LoginRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"User email"`
	Password string `json:"password" minLength:"1" maxLength:"128" doc:"User password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
	Status    string    `json:"status"`
}

type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role" enum:"superadmin,admin,team"`
	TenantID  string `json:"tenantId,omitempty"`
}
