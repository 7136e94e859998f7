package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	"github.com/medlan/pharmacy-pos/internal/domain/repository"
)

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo persiste los traslados en stock_transfers (cabecera y estado)
// y stock_transfer_items (cantidades solicitada/despachada/recibida por línea).
type StockTransferRepo struct {
	pool *pgxpool.Pool
}

// NewStockTransferRepository construye el adaptador de traslados.
func NewStockTransferRepository(pool *pgxpool.Pool) *StockTransferRepo {
	return &StockTransferRepo{pool: pool}
}

// Create persiste cabecera e ítems en una transacción.
func (r *StockTransferRepo) Create(tr *entity.StockTransfer) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_transfers (id, number, source_branch_id, dest_branch_id, status,
			reject_reason, requested_by, approved_by, dispatched_by, received_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tr.ID, tr.Number, tr.SourceBranchID, tr.DestBranchID, tr.Status,
		tr.RejectReason, tr.RequestedBy, tr.ApprovedBy, tr.DispatchedBy, tr.ReceivedBy,
		tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	for _, it := range tr.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO stock_transfer_items (id, transfer_id, product_id, batch_id,
				requested_qty, dispatched_qty, received_qty)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, tr.ID, it.ProductID, it.BatchID,
			it.RequestedQty, it.DispatchedQty, it.ReceivedQty,
		)
		if err != nil {
			return fmt.Errorf("insert transfer item: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update reescribe cabecera y cantidades de ítems. Los ítems de un traslado
// nunca cambian de identidad después de creados; solo avanzan sus cantidades.
func (r *StockTransferRepo) Update(tr *entity.StockTransfer) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		UPDATE stock_transfers SET status = $2, reject_reason = $3, approved_by = $4,
			dispatched_by = $5, received_by = $6, updated_at = $7
		WHERE id = $1`,
		tr.ID, tr.Status, tr.RejectReason, tr.ApprovedBy, tr.DispatchedBy, tr.ReceivedBy, tr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	for _, it := range tr.Items {
		_, err := tx.Exec(ctx, `
			UPDATE stock_transfer_items SET dispatched_qty = $2, received_qty = $3
			WHERE id = $1`,
			it.ID, it.DispatchedQty, it.ReceivedQty,
		)
		if err != nil {
			return fmt.Errorf("update transfer item: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID obtiene el traslado completo, o nil si no existe.
func (r *StockTransferRepo) GetByID(id string) (*entity.StockTransfer, error) {
	ctx := context.Background()
	query := `
		SELECT id, number, source_branch_id, dest_branch_id, status, reject_reason,
			requested_by, approved_by, dispatched_by, received_by, created_at, updated_at
		FROM stock_transfers WHERE id = $1`
	var t entity.StockTransfer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Number, &t.SourceBranchID, &t.DestBranchID, &t.Status, &t.RejectReason,
		&t.RequestedBy, &t.ApprovedBy, &t.DispatchedBy, &t.ReceivedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if t.Items, err = r.itemsFor(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *StockTransferRepo) itemsFor(ctx context.Context, transferID string) ([]entity.TransferItem, error) {
	query := `
		SELECT id, product_id, batch_id, requested_qty, dispatched_qty, received_qty
		FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()

	var items []entity.TransferItem
	for rows.Next() {
		var it entity.TransferItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.BatchID,
			&it.RequestedQty, &it.DispatchedQty, &it.ReceivedQty); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByBranch lista los traslados donde la sucursal participa como origen o
// destino, con paginación, el más reciente primero.
func (r *StockTransferRepo) ListByBranch(branchID string, limit, offset int) ([]*entity.StockTransfer, error) {
	ctx := context.Background()
	query := `
		SELECT id, number, source_branch_id, dest_branch_id, status, reject_reason,
			requested_by, approved_by, dispatched_by, received_by, created_at, updated_at
		FROM stock_transfers
		WHERE source_branch_id = $1 OR dest_branch_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockTransfer
	for rows.Next() {
		var t entity.StockTransfer
		if err := rows.Scan(&t.ID, &t.Number, &t.SourceBranchID, &t.DestBranchID, &t.Status,
			&t.RejectReason, &t.RequestedBy, &t.ApprovedBy, &t.DispatchedBy, &t.ReceivedBy,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.Items, err = r.itemsFor(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Count devuelve el total de traslados, usado para el consecutivo.
func (r *StockTransferRepo) Count() (int64, error) {
	var n int64
	err := r.pool.QueryRow(context.Background(), `SELECT count(*) FROM stock_transfers`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return n, nil
}
