package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleOperador = "operador"
	RoleAuditor  = "auditor"
)

// User operador del sistema de facturación.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, operador, auditor
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
