package entity

import "time"

// Roles de operador de terminal.
const (
	RoleManager = "manager"
	RoleCashier = "cashier"
)

// User operador del punto de venta, asociado a una sucursal.
type User struct {
	ID           string
	BranchID     string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
