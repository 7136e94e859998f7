package repository

import "github.com/medlan/pharmacy-pos/internal/domain/entity"

// StockTransferRepository puerto de persistencia para traslados entre sucursales.
type StockTransferRepository interface {
	Create(transfer *entity.StockTransfer) error
	Update(transfer *entity.StockTransfer) error
	GetByID(id string) (*entity.StockTransfer, error)
	ListByBranch(branchID string, limit, offset int) ([]*entity.StockTransfer, error)
	// Count devuelve el total de traslados, usado para el consecutivo ST-YYYY-NNNNN.
	Count() (int64, error)
}
