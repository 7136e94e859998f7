package entity

import "github.com/shopspring/decimal"

// Contextos de escaneo. Cambian qué datos devuelve el endpoint remoto de resolución.
const (
	ScanContextPOS         = "POS"
	ScanContextReceiving   = "RECEIVING"
	ScanContextStockTaking = "STOCK_TAKING"
)

// Tipos de alerta devueltos por la resolución de escaneo. LOSS_WARNING y EXPIRED
// son bloqueantes en el POS: exigen cancelar o autorización de supervisor.
const (
	AlertLossWarning  = "LOSS_WARNING" // precio de venta por debajo del costo
	AlertExpired      = "EXPIRED"      // lote vencido
	AlertLowStock     = "LOW_STOCK"
	AlertBelowMinimum = "BELOW_MINIMUM"
	AlertOutOfStock   = "OUT_OF_STOCK"
)

// ScanAlert aviso asociado a un producto escaneado.
type ScanAlert struct {
	AlertType string `json:"alert_type"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
}

// Blocking indica si la alerta detiene el ciclo escaneo→carrito.
func (a ScanAlert) Blocking() bool {
	return a.AlertType == AlertLossWarning || a.AlertType == AlertExpired
}

// ScannedProduct datos del producto resueltos por el endpoint remoto,
// suficientes para construir una línea de carrito.
type ScannedProduct struct {
	ProductID     string          `json:"product_id"`
	BatchID       string          `json:"batch_id,omitempty"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Barcode       string          `json:"barcode"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	StockAtBranch int             `json:"stock_at_branch"`
}

// ScanResult resultado transitorio de un escaneo; vive solo durante el ciclo
// escaneo→carrito (o bloqueo). No se persiste.
type ScanResult struct {
	Success      bool           `json:"success"`
	ScanData     string         `json:"scan_data"`
	Product      ScannedProduct `json:"product"`
	Alerts       []ScanAlert    `json:"alerts,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// BlockingAlert devuelve la primera alerta bloqueante, si existe.
func (r *ScanResult) BlockingAlert() *ScanAlert {
	for i := range r.Alerts {
		if r.Alerts[i].Blocking() {
			return &r.Alerts[i]
		}
	}
	return nil
}
