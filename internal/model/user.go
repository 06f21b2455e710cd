package model

import "time"

// Role distinguishes platform users.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// UserProfile represents a platform user with cumulative quiz stats.
type UserProfile struct {
	ID                int       `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Role              Role      `json:"role"`
	FullName          string    `json:"full_name"`
	TotalQuizzesTaken int       `json:"total_quizzes_taken"`
	TotalScore        float64   `json:"total_score"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for student self-registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for authentication (both roles).
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}
