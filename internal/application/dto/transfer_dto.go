package dto

// TransferItemRequest línea solicitada de un traslado.
type TransferItemRequest struct {
	ProductID    string `json:"product_id"`
	BatchID      string `json:"batch_id"`
	RequestedQty int    `json:"requested_qty"`
}

// CreateTransferRequest solicitud de traslado entre sucursales.
type CreateTransferRequest struct {
	SourceBranchID string                `json:"source_branch_id"`
	DestBranchID   string                `json:"dest_branch_id"`
	Items          []TransferItemRequest `json:"items"`
}

// RejectTransferRequest rechazo con motivo obligatorio.
type RejectTransferRequest struct {
	Reason string `json:"reason"`
}

// DispatchItemRequest cantidad despachada por línea, elegida por el despachador
// (<= cantidad solicitada; permite cumplimiento parcial).
type DispatchItemRequest struct {
	ProductID     string `json:"product_id"`
	BatchID       string `json:"batch_id"`
	DispatchedQty int    `json:"dispatched_qty"`
}

// DispatchTransferRequest despacho del traslado. Las líneas no listadas se
// despachan por la cantidad solicitada completa.
type DispatchTransferRequest struct {
	Items []DispatchItemRequest `json:"items"`
}

// ReceiveItemRequest cantidad recibida por línea (<= despachada).
type ReceiveItemRequest struct {
	ProductID   string `json:"product_id"`
	BatchID     string `json:"batch_id"`
	ReceivedQty int    `json:"received_qty"`
}

// ReceiveTransferRequest recepción del traslado. Las líneas no listadas se
// asumen recibidas completas.
type ReceiveTransferRequest struct {
	Items []ReceiveItemRequest `json:"items"`
}
