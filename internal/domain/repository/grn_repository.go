package repository

import "github.com/medlan/pharmacy-pos/internal/domain/entity"

// GRNRepository puerto de persistencia para documentos de recepción (GRN).
type GRNRepository interface {
	Create(grn *entity.GRN) error
	// Update reescribe cabecera, estado e ítems del documento.
	Update(grn *entity.GRN) error
	GetByID(id string) (*entity.GRN, error)
	ListByBranch(branchID string, limit, offset int) ([]*entity.GRN, error)
	// Count devuelve el total de documentos, usado para el consecutivo GRN-YYYY-NNNNN.
	Count() (int64, error)
}
