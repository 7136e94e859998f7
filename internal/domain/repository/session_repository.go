package repository

import "github.com/medlan/pharmacy-pos/internal/domain/entity"

// SessionRepository puerto de persistencia del estado local de una terminal:
// el carrito activo (con cliente y descuento) bajo una única clave con namespace
// `pos:cart:<terminal>`. Sobrevive al reinicio de la terminal.
type SessionRepository interface {
	// GetCart devuelve el carrito activo de la terminal, o nil si no hay sesión guardada.
	GetCart(terminalID string) (*entity.Cart, error)
	SaveCart(terminalID string, cart *entity.Cart) error
	DeleteCart(terminalID string) error
}

// HeldSaleRepository puerto para ventas en espera. A diferencia del carrito activo,
// las ventas retenidas se borran individualmente por id.
type HeldSaleRepository interface {
	Create(sale *entity.HeldSale) error
	GetByID(id string) (*entity.HeldSale, error)
	ListByTerminal(terminalID string) ([]*entity.HeldSale, error)
	Delete(id string) error
}
