package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/receiving"
)

// GRNHandler expone el ciclo de vida de los documentos de recepción.
type GRNHandler struct {
	uc *receiving.GRNUseCase
}

// NewGRNHandler construye el handler de GRNs.
func NewGRNHandler(uc *receiving.GRNUseCase) *GRNHandler {
	return &GRNHandler{uc: uc}
}

// Create da de alta un GRN en borrador.
func (h *GRNHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateGRNRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.BranchID == "" {
		in.BranchID = GetBranchID(c)
	}
	grn, err := h.uc.Create(actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(grn)
}

// Update reescribe cabecera e ítems de un GRN editable.
func (h *GRNHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateGRNRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	grn, err := h.uc.Update(actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grn)
}

// Submit envía el borrador a verificación.
func (h *GRNHandler) Submit(c *fiber.Ctx) error {
	grn, err := h.uc.Submit(actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grn)
}

// Verify marca la mercancía como cotejada físicamente.
func (h *GRNHandler) Verify(c *fiber.Ctx) error {
	grn, err := h.uc.Verify(actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grn)
}

// Complete cierra el GRN aplicando el stock contra el ledger.
func (h *GRNHandler) Complete(c *fiber.Ctx) error {
	grn, err := h.uc.Complete(c.Context(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grn)
}

// Cancel anula el documento con motivo obligatorio.
func (h *GRNHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelGRNRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	grn, err := h.uc.Cancel(actorFrom(c), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grn)
}

// GetByID devuelve el documento completo.
func (h *GRNHandler) GetByID(c *fiber.Ctx) error {
	grn, err := h.uc.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grn)
}

// List lista los GRN de la sucursal del operador.
func (h *GRNHandler) List(c *fiber.Ctx) error {
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
