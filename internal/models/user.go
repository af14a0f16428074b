package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole is the closed set of roles known to the access filter. Any value
// outside this set is denied all access.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RolePrefeito    UserRole = "PREFEITO"
	RoleDiretor     UserRole = "DIRETOR"
	RoleProfessor   UserRole = "PROFESSOR"
	RoleResponsavel UserRole = "RESPONSAVEL"
)

// User represents an authenticated dashboard user. TurmaIDs scopes a
// PROFESSOR to owned classrooms; AlunoIDs scopes a RESPONSAVEL to linked
// students. Both sets stay empty for every other role.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	TurmaIDs     []string `json:"turma_ids,omitempty"`
	AlunoIDs     []string `json:"aluno_ids,omitempty"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	TurmaIDs []string `json:"turma_ids,omitempty"`
	AlunoIDs []string `json:"aluno_ids,omitempty"`
}

// JWTClaims is the access token payload. Scoping sets travel in the token so
// the access filter works off the authenticated user alone.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	TurmaIDs []string `json:"turma_ids,omitempty"`
	AlunoIDs []string `json:"aluno_ids,omitempty"`
	jwt.RegisteredClaims
}

// User rebuilds the scoped user record carried by the claims.
func (c *JWTClaims) User() User {
	return User{
		ID:       c.UserID,
		Name:     c.Name,
		Email:    c.Email,
		Role:     c.Role,
		TurmaIDs: c.TurmaIDs,
		AlunoIDs: c.AlunoIDs,
	}
}
