package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/scan"
)

// ScanHandler expone el acumulador de teclas y la compuerta de escaneo.
type ScanHandler struct {
	guard *scan.Guard
}

// NewScanHandler construye el handler de escaneo.
func NewScanHandler(guard *scan.Guard) *ScanHandler {
	return &ScanHandler{guard: guard}
}

// Keys alimenta el acumulador con una tecla. Responde 204 mientras el código no
// esté completo; con un Enter válido responde el resultado del escaneo.
func (h *ScanHandler) Keys(c *fiber.Ctx) error {
	var in dto.KeyEventRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.TerminalID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "terminal_id requerido"})
	}
	out, err := h.guard.HandleKey(c.Context(), in.TerminalID, GetBranchID(c), scan.KeyEvent{
		Key:          in.Key,
		InputFocused: in.InputFocused,
	})
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(out)
}

// Process resuelve un código completo sin pasar por el acumulador.
func (h *ScanHandler) Process(c *fiber.Ctx) error {
	var in dto.ProcessScanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.TerminalID == "" || in.ScanData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "terminal_id y scan_data son requeridos"})
	}
	out, err := h.guard.HandleScan(c.Context(), in.TerminalID, GetBranchID(c), in.ScanData, in.Context)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Override libera un escaneo bloqueado con autorización de supervisor.
func (h *ScanHandler) Override(c *fiber.Ctx) error {
	var in dto.OverrideRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.guard.Override(c.Context(), in.TerminalID, in.ManagerID, in.PIN)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel descarta el escaneo bloqueado de la terminal.
func (h *ScanHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelScanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.guard.Cancel(in.TerminalID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
