package pos_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	"github.com/medlan/pharmacy-pos/internal/domain/pos"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Escenario de referencia: una línea {precio=100, cant=3, desc=10%, iva=5%}, sin descuento de carrito.
// subtotal=300, descuento ítems=30, base=270, impuestos=13.5, total=283.5.
func TestCompute_EscenarioReferencia(t *testing.T) {
	cart := entity.NewCart()
	cart.Lines = []entity.CartLine{{
		ProductID:           "p1",
		UnitPrice:           dec("100"),
		Quantity:            3,
		LineDiscountPercent: dec("10"),
		TaxRatePercent:      dec("5"),
	}}

	tot := pos.Compute(cart)

	assert.True(t, tot.Subtotal.Equal(dec("300")), "subtotal: %s", tot.Subtotal)
	assert.True(t, tot.ItemDiscountTotal.Equal(dec("30")), "descuento ítems: %s", tot.ItemDiscountTotal)
	assert.True(t, tot.AfterItemDiscount.Equal(dec("270")), "base: %s", tot.AfterItemDiscount)
	assert.True(t, tot.TaxTotal.Equal(dec("13.5")), "impuestos: %s", tot.TaxTotal)
	assert.True(t, tot.GrandTotal.Equal(dec("283.5")), "total: %s", tot.GrandTotal)
}

func TestCompute_DescuentoFijoRecortadoAlSubtotal(t *testing.T) {
	cart := entity.NewCart()
	cart.Lines = []entity.CartLine{{
		ProductID: "p1",
		UnitPrice: dec("50"),
		Quantity:  1,
	}}
	// Monto fijo mayor que la base: se recorta al calcular, el valor guardado no cambia.
	cart.CartDiscount = entity.CartDiscount{Kind: entity.DiscountFixed, Value: dec("80")}

	tot := pos.Compute(cart)

	assert.True(t, tot.CartDiscountAmt.Equal(dec("50")), "descuento carrito: %s", tot.CartDiscountAmt)
	assert.True(t, tot.GrandTotal.Equal(dec("0")), "total: %s", tot.GrandTotal)
	assert.True(t, cart.CartDiscount.Value.Equal(dec("80")), "el valor guardado no debe recortarse")
}

func TestCompute_TotalNuncaNegativoNiMayorQueSubtotalMasImpuestos(t *testing.T) {
	cart := entity.NewCart()
	cart.Lines = []entity.CartLine{
		{ProductID: "a", UnitPrice: dec("19.99"), Quantity: 2, LineDiscountPercent: dec("100"), TaxRatePercent: dec("19")},
		{ProductID: "b", UnitPrice: dec("7.35"), Quantity: 5, LineDiscountPercent: dec("15"), TaxRatePercent: dec("5")},
	}
	cart.CartDiscount = entity.CartDiscount{Kind: entity.DiscountFixed, Value: dec("1000")}

	tot := pos.Compute(cart)

	require.False(t, tot.GrandTotal.IsNegative(), "grandTotal negativo: %s", tot.GrandTotal)
	limite := tot.Subtotal.Add(tot.TaxTotal)
	assert.True(t, tot.GrandTotal.LessThanOrEqual(limite),
		"grandTotal %s supera subtotal+impuestos %s", tot.GrandTotal, limite)
}

func TestCompute_CambioSoloSiRecibidoSupaTotal(t *testing.T) {
	cart := entity.NewCart()
	cart.Lines = []entity.CartLine{{ProductID: "p1", UnitPrice: dec("10"), Quantity: 1}}

	cart.AmountTendered = dec("5")
	assert.True(t, pos.Compute(cart).ChangeDue.IsZero(), "pago insuficiente no genera cambio")

	cart.AmountTendered = dec("20")
	assert.True(t, pos.Compute(cart).ChangeDue.Equal(dec("10")))
}

func TestCompute_CarritoVacio(t *testing.T) {
	tot := pos.Compute(entity.NewCart())
	assert.True(t, tot.Subtotal.IsZero())
	assert.True(t, tot.GrandTotal.IsZero())
	assert.True(t, tot.ChangeDue.IsZero())
}

func TestClampPercent(t *testing.T) {
	assert.True(t, pos.ClampPercent(dec("-3")).IsZero())
	assert.True(t, pos.ClampPercent(dec("150")).Equal(dec("100")))
	assert.True(t, pos.ClampPercent(dec("42.5")).Equal(dec("42.5")))
}

// La aritmética decimal no debe acumular deriva binaria: 0.1 * 3 == 0.3 exacto.
func TestCompute_SinDerivaBinaria(t *testing.T) {
	cart := entity.NewCart()
	cart.Lines = []entity.CartLine{{ProductID: "p1", UnitPrice: dec("0.1"), Quantity: 3}}

	assert.True(t, pos.Compute(cart).Subtotal.Equal(dec("0.3")))
}
