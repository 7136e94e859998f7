// Package pdf implementa la generación del tiquete de venta para impresora
// térmica de rollo 80mm.
//
// Layout del tiquete:
//
//	┌──────────────────────────────┐
//	│   FARMACIA (nombre/sucursal) │
//	│   Tiquete N° + fecha + caja  │
//	│  ──────────────────────────  │
//	│  Cant  Producto       Neto   │
//	│  ──────────────────────────  │
//	│  Subtotal / Descuentos / IVA │
//	│  TOTAL / Recibido / Vuelto   │
//	│  ──────────────────────────  │
//	│  QR (id de venta) + leyenda  │
//	└──────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

var colorGray = &props.Color{Red: 100, Green: 100, Blue: 100}

// ReceiptGenerator genera el tiquete de venta en PDF usando Maroto v2.
type ReceiptGenerator struct {
	storeName string
}

// NewReceiptGenerator construye el generador con el nombre a imprimir en cabecera.
func NewReceiptGenerator(storeName string) *ReceiptGenerator {
	if storeName == "" {
		storeName = "Pharmacy POS"
	}
	return &ReceiptGenerator{storeName: storeName}
}

// GenerateReceiptPDF genera el tiquete de la venta y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateReceiptPDF(_ context.Context, sale *entity.Sale) ([]byte, error) {
	// Rollo 80mm; el alto crece con las líneas (la impresora corta al final).
	height := 120 + float64(len(sale.Lines))*5
	cfg := config.NewBuilder().
		WithDimensions(80, height).
		WithLeftMargin(4).WithRightMargin(4).
		WithTopMargin(4).WithBottomMargin(4).
		WithDefaultFont(&props.Font{Family: "courier", Size: 8}).
		WithTitle("Tiquete de venta", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRows(g.storeName, sale)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(itemHeaderRow())
	for _, l := range sale.Lines {
		m.AddRows(itemRow(l))
	}
	m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(totalsRows(sale)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(sale)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar tiquete: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRows(storeName string, sale *entity.Sale) []core.Row {
	return []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New(storeName, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 1}),
		)),
		row.New(4).Add(col.New(12).Add(
			text.New("Sucursal "+sale.BranchID, props.Text{Size: 7, Align: align.Center, Color: colorGray}),
		)),
		row.New(8).Add(
			col.New(7).Add(
				text.New("Venta "+sale.ID, props.Text{Size: 7, Top: 1}),
				text.New(sale.SoldAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Top: 5, Color: colorGray}),
			),
			col.New(5).Add(
				text.New("Caja "+sale.TerminalID, props.Text{Size: 7, Align: align.Right, Top: 1}),
				text.New(sale.PaymentMethod, props.Text{Size: 7, Align: align.Right, Top: 5, Color: colorGray}),
			),
		),
	}
}

func itemHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Align: a, Top: 1}))
	}
	return row.New(5).Add(
		h("Cant", 2, align.Left),
		h("Producto", 6, align.Left),
		h("Neto", 4, align.Right),
	)
}

func itemRow(l entity.SaleLine) core.Row {
	name := l.ProductName
	if !l.LineDiscountPercent.IsZero() {
		name = fmt.Sprintf("%s (-%s%%)", name, l.LineDiscountPercent.StringFixed(0))
	}
	return row.New(5).Add(
		col.New(2).Add(text.New(fmt.Sprintf("%d", l.Quantity), props.Text{Size: 7, Top: 1})),
		col.New(6).Add(text.New(name, props.Text{Size: 7, Top: 1})),
		col.New(4).Add(text.New(money(l.LineNet), props.Text{Size: 7, Align: align.Right, Top: 1})),
	)
}

func totalsRows(sale *entity.Sale) []core.Row {
	pair := func(label string, v decimal.Decimal, bold bool) core.Row {
		style := fontstyle.Normal
		size := 7.0
		if bold {
			style = fontstyle.Bold
			size = 9
		}
		return row.New(4).Add(
			col.New(7).Add(text.New(label, props.Text{Style: style, Size: size, Align: align.Right, Right: 2})),
			col.New(5).Add(text.New(money(v), props.Text{Style: style, Size: size, Align: align.Right})),
		)
	}

	rows := []core.Row{pair("Subtotal:", sale.Subtotal, false)}
	if !sale.ItemDiscount.IsZero() {
		rows = append(rows, pair("Desc. líneas:", sale.ItemDiscount.Neg(), false))
	}
	if !sale.CartDiscount.IsZero() {
		rows = append(rows, pair("Desc. venta:", sale.CartDiscount.Neg(), false))
	}
	rows = append(rows,
		pair("IVA:", sale.TaxTotal, false),
		pair("TOTAL:", sale.GrandTotal, true),
	)
	if !sale.AmountTendered.IsZero() {
		rows = append(rows,
			pair("Recibido:", sale.AmountTendered, false),
			pair("Vuelto:", sale.ChangeDue, false),
		)
	}
	return rows
}

func footerRows(sale *entity.Sale) []core.Row {
	return []core.Row{
		row.New(24).Add(
			col.New(12).Add(code.NewQr(sale.ID, props.Rect{Percent: 90, Center: true})),
		),
		row.New(6).Add(col.New(12).Add(
			text.New("Gracias por su compra. Conserve este tiquete para cambios y garantías.",
				props.Text{Size: 6.5, Align: align.Center, Color: colorGray, Top: 1}),
		)),
	}
}

// money formatea un decimal con dos decimales y prefijo de moneda.
func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}
