package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del GRN (Goods Received Note). Transiciones monótonas:
// DRAFT → PENDING → VERIFIED → COMPLETED, con CANCELLED alcanzable
// desde DRAFT o PENDING. COMPLETED y CANCELLED son terminales.
const (
	GRNStatusDraft     = "DRAFT"
	GRNStatusPending   = "PENDING"
	GRNStatusVerified  = "VERIFIED"
	GRNStatusCompleted = "COMPLETED"
	GRNStatusCancelled = "CANCELLED"
)

// GRNItem es una línea de recepción de mercancía de proveedor.
// Para completar el GRN cada ítem debe tener lote, fechas y precios válidos.
type GRNItem struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          int             `json:"quantity"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	MRP               decimal.Decimal `json:"mrp"` // precio máximo de venta impreso en el lote
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
}

// GRN documento de recepción de mercancía. El stock se afecta exactamente una vez,
// en la transición a COMPLETED.
type GRN struct {
	ID              string    `json:"id"`
	Number          string    `json:"number"` // GRN-YYYY-NNNNN
	SupplierID      string    `json:"supplier_id"`
	BranchID        string    `json:"branch_id"`
	PurchaseOrderID string    `json:"purchase_order_id,omitempty"`
	ReceivedDate    time.Time `json:"received_date"`
	Items           []GRNItem `json:"items"`
	Status          string    `json:"status"`
	Remarks         string    `json:"remarks,omitempty"`
	CreatedBy       string    `json:"created_by"`
	VerifiedBy      string    `json:"verified_by,omitempty"`
	CompletedBy     string    `json:"completed_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Editable indica si el documento admite cambios de cabecera e ítems.
func (g *GRN) Editable() bool {
	return g.Status == GRNStatusDraft || g.Status == GRNStatusPending
}

// Terminal indica si el GRN llegó a un estado final.
func (g *GRN) Terminal() bool {
	return g.Status == GRNStatusCompleted || g.Status == GRNStatusCancelled
}
