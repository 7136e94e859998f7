package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	"github.com/medlan/pharmacy-pos/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo persiste el carrito activo de cada terminal como documento JSONB
// bajo la clave pos:cart:<terminal>. El carrito sobrevive al reinicio de la terminal.
type SessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepository construye el adaptador de sesiones de terminal.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func cartKey(terminalID string) string {
	return "pos:cart:" + terminalID
}

// GetCart devuelve el carrito guardado de la terminal, o nil si no hay sesión.
func (r *SessionRepo) GetCart(terminalID string) (*entity.Cart, error) {
	var raw []byte
	err := r.pool.QueryRow(context.Background(),
		`SELECT payload FROM pos_sessions WHERE key = $1`, cartKey(terminalID),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	var cart entity.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

// SaveCart guarda (upsert) el carrito de la terminal.
func (r *SessionRepo) SaveCart(terminalID string, cart *entity.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = r.pool.Exec(context.Background(), `
		INSERT INTO pos_sessions (key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		cartKey(terminalID), raw,
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// DeleteCart borra la sesión de la terminal.
func (r *SessionRepo) DeleteCart(terminalID string) error {
	_, err := r.pool.Exec(context.Background(),
		`DELETE FROM pos_sessions WHERE key = $1`, cartKey(terminalID))
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
