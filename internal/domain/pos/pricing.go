package pos

import (
	"github.com/shopspring/decimal"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// Funciones puras de precio del carrito (servicio de dominio).
// Los totales se derivan del estado actual en cada lectura; nunca se cachean.

var hundred = decimal.NewFromInt(100)

// LineGross = precio unitario * cantidad.
func LineGross(l entity.CartLine) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineDiscount = bruto de línea * % descuento de línea / 100.
func LineDiscount(l entity.CartLine) decimal.Decimal {
	return LineGross(l).Mul(l.LineDiscountPercent).Div(hundred)
}

// LineNet = bruto de línea - descuento de línea.
func LineNet(l entity.CartLine) decimal.Decimal {
	return LineGross(l).Sub(LineDiscount(l))
}

// Totals desglose completo de totales de un carrito.
type Totals struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	ItemDiscountTotal decimal.Decimal `json:"item_discount_total"`
	AfterItemDiscount decimal.Decimal `json:"after_item_discount"`
	CartDiscountAmt   decimal.Decimal `json:"cart_discount_amount"`
	TaxTotal          decimal.Decimal `json:"tax_total"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	ChangeDue         decimal.Decimal `json:"change_due"`
}

// Compute deriva los totales del carrito.
//
//	subtotal          = Σ bruto de línea
//	itemDiscountTotal = Σ descuento de línea
//	afterItemDiscount = subtotal - itemDiscountTotal
//	cartDiscountAmt   = % sobre afterItemDiscount, o monto fijo recortado a afterItemDiscount
//	taxTotal          = Σ (neto de línea * tasa de impuesto / 100)
//	grandTotal        = afterItemDiscount - cartDiscountAmt + taxTotal
//	changeDue         = max(0, recibido - grandTotal)
func Compute(c *entity.Cart) Totals {
	subtotal := decimal.Zero
	itemDiscount := decimal.Zero
	taxTotal := decimal.Zero

	for _, l := range c.Lines {
		subtotal = subtotal.Add(LineGross(l))
		itemDiscount = itemDiscount.Add(LineDiscount(l))
		taxTotal = taxTotal.Add(LineNet(l).Mul(l.TaxRatePercent).Div(hundred))
	}

	afterItemDiscount := subtotal.Sub(itemDiscount)

	var cartDiscount decimal.Decimal
	switch c.CartDiscount.Kind {
	case entity.DiscountFixed:
		// El monto fijo guardado puede superar el subtotal; se recorta aquí, no al guardarlo.
		cartDiscount = decimal.Min(c.CartDiscount.Value, afterItemDiscount)
	default:
		cartDiscount = afterItemDiscount.Mul(c.CartDiscount.Value).Div(hundred)
	}

	grandTotal := afterItemDiscount.Sub(cartDiscount).Add(taxTotal)

	changeDue := decimal.Zero
	if c.AmountTendered.GreaterThan(grandTotal) {
		changeDue = c.AmountTendered.Sub(grandTotal)
	}

	return Totals{
		Subtotal:          subtotal,
		ItemDiscountTotal: itemDiscount,
		AfterItemDiscount: afterItemDiscount,
		CartDiscountAmt:   cartDiscount,
		TaxTotal:          taxTotal,
		GrandTotal:        grandTotal,
		ChangeDue:         changeDue,
	}
}

// ClampPercent limita un porcentaje al rango [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
