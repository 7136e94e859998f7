// Package ports define los puertos compartidos hacia servicios externos.
// El Ledger Service es el sistema de registro del stock por sucursal y de las
// ventas confirmadas; este núcleo solo le emite instrucciones y nunca avanza
// un estado local sin su confirmación positiva.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// StockInstruction instrucción puntual de ajuste de stock contra una sucursal.
// IdempotencyKey permite reintentar una instrucción ya aplicada sin duplicar el ajuste.
type StockInstruction struct {
	BranchID       string          `json:"branch_id"`
	ProductID      string          `json:"product_id"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	Reference      string          `json:"reference"` // documento origen (GRN-..., ST-...)
	IdempotencyKey string          `json:"-"`
}

// LedgerService puerto hacia el sistema de registro remoto.
type LedgerService interface {
	IncreaseStock(ctx context.Context, in StockInstruction) error
	DecreaseStock(ctx context.Context, in StockInstruction) error
	// CommitSale registra la venta como inmutable y devuelve su id remoto.
	CommitSale(ctx context.Context, sale *entity.Sale) (string, error)
}
