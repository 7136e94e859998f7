package repository

import "github.com/medlan/pharmacy-pos/internal/domain/entity"

// UserRepository puerto de persistencia para operadores de terminal.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
}
