package dto

import "time"

type CreateUserRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=50"`
	Surname      string `json:"surname" binding:"required,min=2,max=50"`
	Email        string `json:"email" binding:"required,email,max=255"`
	MobileNumber string `json:"mobileNumber" binding:"omitempty,min=6,max=20"`
	Password     string `json:"password" binding:"required,min=8,max=100"`
	Role         string `json:"role" binding:"required,oneof=admin manager employee"`
	ManagerID    *uint  `json:"id_manager"`
}

// UpdatePasswordRequest changes a password. CurrentPassword may be omitted
// only when an admin resets someone else's password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type UserResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber,omitempty"`
	Role         string    `json:"role"`
	ManagerID    *uint     `json:"id_manager,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
