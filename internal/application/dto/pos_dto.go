package dto

import (
	"github.com/shopspring/decimal"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	"github.com/medlan/pharmacy-pos/internal/domain/pos"
)

// AddLineRequest alta manual de línea (búsqueda de producto sin escáner).
type AddLineRequest struct {
	ProductID    string          `json:"product_id"`
	BatchID      string          `json:"batch_id"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	MaxQuantity  int             `json:"max_quantity"`
	Quantity     int             `json:"quantity"`
}

// UpdateLineRequest cambio sobre una línea existente: cantidad (<= 0 elimina)
// y/o descuento porcentual (se recorta a [0,100]). Los campos nil no se tocan.
type UpdateLineRequest struct {
	BatchID         string           `json:"batch_id"`
	Quantity        *int             `json:"quantity,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

// CartDiscountRequest descuento de carrito.
type CartDiscountRequest struct {
	Kind  string          `json:"kind"` // PERCENT | FIXED
	Value decimal.Decimal `json:"value"`
}

// CustomerRequest asociación de cliente al carrito.
type CustomerRequest struct {
	CustomerID string `json:"customer_id"`
}

// PaymentRequest método de pago y monto recibido del carrito.
type PaymentRequest struct {
	Method         string          `json:"method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
}

// HoldRequest retención de la venta en curso.
type HoldRequest struct {
	Label string `json:"label"`
}

// CheckoutRequest cierre de la venta.
type CheckoutRequest struct {
	PaymentMethod  string          `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
}

// CartResponse carrito activo con sus totales derivados.
type CartResponse struct {
	Cart   *entity.Cart `json:"cart"`
	Totals pos.Totals   `json:"totals"`
}

// HeldSaleResponse resumen de una venta en espera.
type HeldSaleResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Lines  int    `json:"lines"`
	HeldAt string `json:"held_at"`
}
