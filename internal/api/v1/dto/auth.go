package dto

import (
	"time"

	"complianceai/internal/model"
)

// RegisterDTO is the body of POST /auth/register.
type RegisterDTO struct {
	Name     string  `json:"name" validate:"required,min=2,max=50,personname"`
	Email    string  `json:"email" validate:"required,email,max=100"`
	Password string  `json:"password" validate:"required,min=8,max=128,strongpassword"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,indianphone"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileDTO struct {
	Name  string  `json:"name" validate:"required,min=2,max=50,personname"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,indianphone"`
}

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponseDTO struct {
	User      UserResponseDTO `json:"user"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func NewUserResponse(u *model.User) UserResponseDTO {
	return UserResponseDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
