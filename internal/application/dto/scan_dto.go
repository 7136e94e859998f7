package dto

// KeyEventRequest tecla recibida por el acumulador de escaneo de una terminal.
type KeyEventRequest struct {
	TerminalID   string `json:"terminal_id"`
	Key          string `json:"key"` // "Enter" o un carácter imprimible
	InputFocused bool   `json:"input_focused"`
}

// ProcessScanRequest escaneo directo (código completo, sin pasar por el acumulador).
type ProcessScanRequest struct {
	TerminalID string `json:"terminal_id"`
	ScanData   string `json:"scan_data"`
	Context    string `json:"context"` // POS | RECEIVING | STOCK_TAKING
}

// OverrideRequest autorización de supervisor para un escaneo bloqueado.
type OverrideRequest struct {
	TerminalID string `json:"terminal_id"`
	ManagerID  string `json:"manager_id"`
	PIN        string `json:"pin"`
}

// CancelScanRequest cancelación del escaneo bloqueado de una terminal.
type CancelScanRequest struct {
	TerminalID string `json:"terminal_id"`
}
