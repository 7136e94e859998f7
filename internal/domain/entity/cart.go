package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de descuento a nivel carrito.
const (
	DiscountPercent = "PERCENT"
	DiscountFixed   = "FIXED"
)

// Métodos de pago aceptados en el punto de venta.
const (
	PaymentCash = "CASH"
	PaymentCard = "CARD"
)

// CartLine es una línea del carrito activo. La identidad es (ProductID, BatchID):
// volver a escanear el mismo producto/lote incrementa la cantidad en vez de crear otra línea.
type CartLine struct {
	ProductID           string          `json:"product_id"`
	BatchID             string          `json:"batch_id,omitempty"`
	ProductName         string          `json:"product_name"`
	SKU                 string          `json:"sku,omitempty"`
	Barcode             string          `json:"barcode,omitempty"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	CostPrice           decimal.Decimal `json:"cost_price"`
	Quantity            int             `json:"quantity"`
	MaxQuantity         int             `json:"max_quantity"` // techo de stock informativo; el ledger decide en el checkout
	LineDiscountPercent decimal.Decimal `json:"line_discount_percent"`
	TaxRatePercent      decimal.Decimal `json:"tax_rate_percent"`
}

// SameIdentity indica si otra línea corresponde al mismo (producto, lote).
func (l CartLine) SameIdentity(productID, batchID string) bool {
	return l.ProductID == productID && l.BatchID == batchID
}

// CartDiscount descuento a nivel carrito: porcentaje o monto fijo.
// El valor fijo se guarda sin recortar; el recorte al subtotal se aplica al calcular totales.
type CartDiscount struct {
	Kind  string          `json:"kind"` // DiscountPercent | DiscountFixed
	Value decimal.Decimal `json:"value"`
}

// ZeroCartDiscount descuento neutro (0%).
func ZeroCartDiscount() CartDiscount {
	return CartDiscount{Kind: DiscountPercent, Value: decimal.Zero}
}

// Cart es el carrito activo de una terminal. Las líneas conservan el orden de inserción.
type Cart struct {
	Lines          []CartLine      `json:"lines"`
	CustomerID     string          `json:"customer_id,omitempty"`
	CartDiscount   CartDiscount    `json:"cart_discount"`
	PaymentMethod  string          `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
}

// NewCart devuelve un carrito vacío con valores por defecto.
func NewCart() *Cart {
	return &Cart{
		Lines:          nil,
		CartDiscount:   ZeroCartDiscount(),
		PaymentMethod:  PaymentCash,
		AmountTendered: decimal.Zero,
	}
}

// IsEmpty indica si el carrito no tiene líneas.
func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// FindLine devuelve el índice de la línea con esa identidad, o -1.
func (c *Cart) FindLine(productID, batchID string) int {
	for i, l := range c.Lines {
		if l.SameIdentity(productID, batchID) {
			return i
		}
	}
	return -1
}

// HeldSale es una venta en espera: snapshot inmutable del carrito en el momento
// de retenerla. Se consume (elimina) al recuperarla.
type HeldSale struct {
	ID           string       `json:"id"`
	TerminalID   string       `json:"terminal_id"`
	Label        string       `json:"label"`
	Lines        []CartLine   `json:"lines"`
	CustomerID   string       `json:"customer_id,omitempty"`
	CartDiscount CartDiscount `json:"cart_discount"`
	HeldAt       time.Time    `json:"held_at"`
}
