package entity

import "time"

// Estados del traslado entre sucursales:
// REQUESTED → APPROVED → DISPATCHED → RECEIVED, con REJECTED desde REQUESTED.
const (
	TransferStatusRequested  = "REQUESTED"
	TransferStatusApproved   = "APPROVED"
	TransferStatusDispatched = "DISPATCHED"
	TransferStatusReceived   = "RECEIVED"
	TransferStatusRejected   = "REJECTED"
)

// TransferItem línea de un traslado. Invariante en todo momento:
// ReceivedQty <= DispatchedQty <= RequestedQty, y ninguna cantidad decrece.
type TransferItem struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	BatchID       string `json:"batch_id,omitempty"`
	RequestedQty  int    `json:"requested_qty"`
	DispatchedQty int    `json:"dispatched_qty"`
	ReceivedQty   int    `json:"received_qty"`
}

// StockTransfer documento de traslado de stock entre sucursales.
// SourceBranchID y DestBranchID nunca coinciden.
type StockTransfer struct {
	ID             string         `json:"id"`
	Number         string         `json:"number"` // ST-YYYY-NNNNN
	SourceBranchID string         `json:"source_branch_id"`
	DestBranchID   string         `json:"dest_branch_id"`
	Items          []TransferItem `json:"items"`
	Status         string         `json:"status"`
	RejectReason   string         `json:"reject_reason,omitempty"`
	RequestedBy    string         `json:"requested_by"`
	ApprovedBy     string         `json:"approved_by,omitempty"`
	DispatchedBy   string         `json:"dispatched_by,omitempty"`
	ReceivedBy     string         `json:"received_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FindItem devuelve el índice del ítem por producto y lote, o -1.
func (t *StockTransfer) FindItem(productID, batchID string) int {
	for i, it := range t.Items {
		if it.ProductID == productID && it.BatchID == batchID {
			return i
		}
	}
	return -1
}

// TransferDiscrepancy faltante detectado en la recepción de un traslado.
// Se reporta como dato estructurado, nunca se corrige en silencio.
type TransferDiscrepancy struct {
	ProductID     string `json:"product_id"`
	BatchID       string `json:"batch_id,omitempty"`
	DispatchedQty int    `json:"dispatched_qty"`
	ReceivedQty   int    `json:"received_qty"`
	Shortfall     int    `json:"shortfall"`
}
