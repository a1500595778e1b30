package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" validate:"required,min=1,max=120"`
	Email        string    `json:"email" validate:"required,email,max=255"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role" validate:"required,oneof=user admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRegister struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserPatch struct {
	Name string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
