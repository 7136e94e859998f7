package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine línea de una venta confirmada (snapshot inmutable de la línea de carrito).
type SaleLine struct {
	ProductID           string          `json:"product_id"`
	BatchID             string          `json:"batch_id,omitempty"`
	ProductName         string          `json:"product_name"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int             `json:"quantity"`
	LineDiscountPercent decimal.Decimal `json:"line_discount_percent"`
	TaxRatePercent      decimal.Decimal `json:"tax_rate_percent"`
	LineNet             decimal.Decimal `json:"line_net"`
}

// Sale registro inmutable de una venta confirmada por el Ledger Service.
// Los totales se congelan en el momento del checkout.
type Sale struct {
	ID             string          `json:"id"`
	TerminalID     string          `json:"terminal_id"`
	BranchID       string          `json:"branch_id"`
	CustomerID     string          `json:"customer_id,omitempty"`
	Lines          []SaleLine      `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ItemDiscount   decimal.Decimal `json:"item_discount"`
	CartDiscount   decimal.Decimal `json:"cart_discount"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentMethod  string          `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due"`
	SoldBy         string          `json:"sold_by"`
	SoldAt         time.Time       `json:"sold_at"`
}
