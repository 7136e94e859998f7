package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/transfer"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// TransferHandler expone el ciclo de vida de los traslados entre sucursales.
type TransferHandler struct {
	uc *transfer.UseCase
}

// NewTransferHandler construye el handler de traslados.
func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create registra una solicitud de traslado. Si no viene destino, es la
// sucursal del operador (una sucursal pide mercancía para sí misma).
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.DestBranchID == "" {
		in.DestBranchID = GetBranchID(c)
	}
	tr, err := h.uc.Create(actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tr)
}

// Approve aprueba la solicitud desde la sucursal destino.
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	tr, err := h.uc.Approve(actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tr)
}

// Reject rechaza la solicitud con motivo obligatorio.
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tr, err := h.uc.Reject(actorFrom(c), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tr)
}

// Dispatch despacha desde la sucursal origen, con cumplimiento parcial opcional.
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchTransferRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tr, err := h.uc.Dispatch(c.Context(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tr)
}

// receiveResponse traslado recibido junto con los faltantes detectados.
type receiveResponse struct {
	Transfer      *entity.StockTransfer        `json:"transfer"`
	Discrepancies []entity.TransferDiscrepancy `json:"discrepancies,omitempty"`
}

// Receive recibe en la sucursal destino y reporta los faltantes.
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tr, discrepancies, err := h.uc.Receive(c.Context(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receiveResponse{Transfer: tr, Discrepancies: discrepancies})
}

// GetByID devuelve el traslado completo.
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	tr, err := h.uc.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tr)
}

// List lista los traslados donde participa la sucursal del operador.
func (h *TransferHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	list, err := h.uc.ListByBranch(GetBranchID(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
