package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GRNItemRequest línea de recepción.
type GRNItemRequest struct {
	ProductID         string          `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          int             `json:"quantity"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	MRP               decimal.Decimal `json:"mrp"`
	ManufacturingDate *time.Time      `json:"manufacturing_date"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
}

// CreateGRNRequest creación/edición de un GRN. La edición reemplaza los ítems completos.
type CreateGRNRequest struct {
	SupplierID      string           `json:"supplier_id"`
	BranchID        string           `json:"branch_id"`
	PurchaseOrderID string           `json:"purchase_order_id"`
	ReceivedDate    time.Time        `json:"received_date"`
	Remarks         string           `json:"remarks"`
	Items           []GRNItemRequest `json:"items"`
}

// CancelGRNRequest cancelación con motivo obligatorio para auditoría.
type CancelGRNRequest struct {
	Reason string `json:"reason"`
}

// GRNItemIssue reporte estructurado de campos faltantes de un ítem al completar.
type GRNItemIssue struct {
	ItemID        string   `json:"item_id"`
	ProductID     string   `json:"product_id"`
	MissingFields []string `json:"missing_fields"`
}
