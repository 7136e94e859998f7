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

var _ repository.GRNRepository = (*GRNRepo)(nil)

// GRNRepo persiste los documentos de recepción en dos tablas: grns (cabecera y
// estado) y grn_items (líneas con lote, fechas y precios NUMERIC).
type GRNRepo struct {
	pool *pgxpool.Pool
}

// NewGRNRepository construye el adaptador de GRNs.
func NewGRNRepository(pool *pgxpool.Pool) *GRNRepo {
	return &GRNRepo{pool: pool}
}

// Create persiste cabecera e ítems en una transacción.
func (r *GRNRepo) Create(grn *entity.GRN) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO grns (id, number, supplier_id, branch_id, purchase_order_id, received_date,
			status, remarks, created_by, verified_by, completed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		grn.ID, grn.Number, grn.SupplierID, grn.BranchID, grn.PurchaseOrderID, grn.ReceivedDate,
		grn.Status, grn.Remarks, grn.CreatedBy, grn.VerifiedBy, grn.CompletedBy,
		grn.CreatedAt, grn.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("GRN %s ya existe: %w", grn.Number, err)
		}
		return fmt.Errorf("insert grn: %w", err)
	}
	if err := insertGRNItems(ctx, tx, grn); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update reescribe cabecera, estado e ítems en una transacción.
func (r *GRNRepo) Update(grn *entity.GRN) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		UPDATE grns SET supplier_id = $2, purchase_order_id = $3, received_date = $4,
			status = $5, remarks = $6, verified_by = $7, completed_by = $8, updated_at = $9
		WHERE id = $1`,
		grn.ID, grn.SupplierID, grn.PurchaseOrderID, grn.ReceivedDate,
		grn.Status, grn.Remarks, grn.VerifiedBy, grn.CompletedBy, grn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update grn: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM grn_items WHERE grn_id = $1`, grn.ID); err != nil {
		return fmt.Errorf("delete grn items: %w", err)
	}
	if err := insertGRNItems(ctx, tx, grn); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertGRNItems(ctx context.Context, q Querier, grn *entity.GRN) error {
	for _, it := range grn.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO grn_items (id, grn_id, product_id, batch_number, quantity,
				cost_price, selling_price, mrp, manufacturing_date, expiry_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, grn.ID, it.ProductID, it.BatchNumber, it.Quantity,
			it.CostPrice, it.SellingPrice, it.MRP, it.ManufacturingDate, it.ExpiryDate,
		)
		if err != nil {
			return fmt.Errorf("insert grn item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el documento completo, o nil si no existe.
func (r *GRNRepo) GetByID(id string) (*entity.GRN, error) {
	ctx := context.Background()
	query := `
		SELECT id, number, supplier_id, branch_id, purchase_order_id, received_date,
			status, remarks, created_by, verified_by, completed_by, created_at, updated_at
		FROM grns WHERE id = $1`
	var g entity.GRN
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.Number, &g.SupplierID, &g.BranchID, &g.PurchaseOrderID, &g.ReceivedDate,
		&g.Status, &g.Remarks, &g.CreatedBy, &g.VerifiedBy, &g.CompletedBy,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grn: %w", err)
	}
	if g.Items, err = r.itemsFor(ctx, g.ID); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GRNRepo) itemsFor(ctx context.Context, grnID string) ([]entity.GRNItem, error) {
	query := `
		SELECT id, product_id, batch_number, quantity, cost_price, selling_price, mrp,
			manufacturing_date, expiry_date
		FROM grn_items WHERE grn_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, grnID)
	if err != nil {
		return nil, fmt.Errorf("list grn items: %w", err)
	}
	defer rows.Close()

	var items []entity.GRNItem
	for rows.Next() {
		var it entity.GRNItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.BatchNumber, &it.Quantity,
			&it.CostPrice, &it.SellingPrice, &it.MRP, &it.ManufacturingDate, &it.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan grn item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByBranch lista los GRN de una sucursal con paginación, el más reciente primero.
// Los ítems se cargan por documento: los listados son cortos (paginados) y la
// pantalla de recepción siempre los necesita completos.
func (r *GRNRepo) ListByBranch(branchID string, limit, offset int) ([]*entity.GRN, error) {
	ctx := context.Background()
	query := `
		SELECT id, number, supplier_id, branch_id, purchase_order_id, received_date,
			status, remarks, created_by, verified_by, completed_by, created_at, updated_at
		FROM grns WHERE branch_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list grns: %w", err)
	}
	defer rows.Close()

	var list []*entity.GRN
	for rows.Next() {
		var g entity.GRN
		if err := rows.Scan(&g.ID, &g.Number, &g.SupplierID, &g.BranchID, &g.PurchaseOrderID,
			&g.ReceivedDate, &g.Status, &g.Remarks, &g.CreatedBy, &g.VerifiedBy, &g.CompletedBy,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan grn: %w", err)
		}
		list = append(list, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, g := range list {
		if g.Items, err = r.itemsFor(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Count devuelve el total de documentos, usado para el consecutivo.
func (r *GRNRepo) Count() (int64, error) {
	var n int64
	err := r.pool.QueryRow(context.Background(), `SELECT count(*) FROM grns`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count grns: %w", err)
	}
	return n, nil
}
