package pos

import (
	"context"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// ReceiptGenerator puerto para el tiquete PDF de una venta confirmada.
type ReceiptGenerator interface {
	GenerateReceiptPDF(ctx context.Context, sale *entity.Sale) ([]byte, error)
}
