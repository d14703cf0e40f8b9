package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User representa un usuario del asistente.
// Un customer queda ligado a su bill_to_party_code: todas las herramientas
// personales ("mis facturas", "mi resumen") se limitan a ese código.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	DisplayName  string
	PartyCode    string // bill_to_party_code; vacío para admins
	Role         string // admin, customer
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
