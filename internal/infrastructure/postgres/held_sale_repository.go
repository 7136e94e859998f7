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

var _ repository.HeldSaleRepository = (*HeldSaleRepo)(nil)

// HeldSaleRepo persiste las ventas en espera. Las líneas y el descuento van como
// JSONB: son un snapshot cerrado que solo se restaura completo, nunca se consulta por campo.
type HeldSaleRepo struct {
	pool *pgxpool.Pool
}

// NewHeldSaleRepository construye el adaptador de ventas en espera.
func NewHeldSaleRepository(pool *pgxpool.Pool) *HeldSaleRepo {
	return &HeldSaleRepo{pool: pool}
}

// heldPayload parte JSONB del registro.
type heldPayload struct {
	Lines        []entity.CartLine   `json:"lines"`
	CustomerID   string              `json:"customer_id,omitempty"`
	CartDiscount entity.CartDiscount `json:"cart_discount"`
}

// Create persiste una venta en espera.
func (r *HeldSaleRepo) Create(sale *entity.HeldSale) error {
	raw, err := json.Marshal(heldPayload{
		Lines:        sale.Lines,
		CustomerID:   sale.CustomerID,
		CartDiscount: sale.CartDiscount,
	})
	if err != nil {
		return fmt.Errorf("encode held sale: %w", err)
	}
	_, err = r.pool.Exec(context.Background(), `
		INSERT INTO pos_held_sales (id, terminal_id, label, payload, held_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sale.ID, sale.TerminalID, sale.Label, raw, sale.HeldAt,
	)
	if err != nil {
		return fmt.Errorf("insert held sale: %w", err)
	}
	return nil
}

// GetByID obtiene una venta en espera, o nil si no existe.
func (r *HeldSaleRepo) GetByID(id string) (*entity.HeldSale, error) {
	query := `
		SELECT id, terminal_id, label, payload, held_at
		FROM pos_held_sales WHERE id = $1`
	row := r.pool.QueryRow(context.Background(), query, id)
	sale, err := scanHeldSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get held sale: %w", err)
	}
	return sale, nil
}

// ListByTerminal lista las ventas en espera de una terminal, la más antigua primero.
func (r *HeldSaleRepo) ListByTerminal(terminalID string) ([]*entity.HeldSale, error) {
	query := `
		SELECT id, terminal_id, label, payload, held_at
		FROM pos_held_sales WHERE terminal_id = $1 ORDER BY held_at ASC`
	rows, err := r.pool.Query(context.Background(), query, terminalID)
	if err != nil {
		return nil, fmt.Errorf("list held sales: %w", err)
	}
	defer rows.Close()

	var list []*entity.HeldSale
	for rows.Next() {
		sale, err := scanHeldSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan held sale: %w", err)
		}
		list = append(list, sale)
	}
	return list, rows.Err()
}

// Delete elimina una venta en espera por ID.
func (r *HeldSaleRepo) Delete(id string) error {
	_, err := r.pool.Exec(context.Background(),
		`DELETE FROM pos_held_sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete held sale: %w", err)
	}
	return nil
}

func scanHeldSale(row pgx.Row) (*entity.HeldSale, error) {
	var sale entity.HeldSale
	var raw []byte
	if err := row.Scan(&sale.ID, &sale.TerminalID, &sale.Label, &raw, &sale.HeldAt); err != nil {
		return nil, err
	}
	var p heldPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode held sale: %w", err)
	}
	sale.Lines = p.Lines
	sale.CustomerID = p.CustomerID
	sale.CartDiscount = p.CartDiscount
	return &sale, nil
}
