package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/pos"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// POSHandler expone el carrito de la terminal: líneas, descuentos, retenciones,
// checkout y tiquete.
type POSHandler struct {
	carts    *pos.CartService
	receipts pos.ReceiptGenerator
}

// NewPOSHandler construye el handler del punto de venta.
func NewPOSHandler(carts *pos.CartService, receipts pos.ReceiptGenerator) *POSHandler {
	return &POSHandler{carts: carts, receipts: receipts}
}

// Cart devuelve el carrito activo con totales.
func (h *POSHandler) Cart(c *fiber.Ctx) error {
	resp, err := h.carts.Cart(c.Params("terminal"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// AddLine agrega una línea por búsqueda manual de producto.
func (h *POSHandler) AddLine(c *fiber.Ctx) error {
	var in dto.AddLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	resp, err := h.carts.AddLine(c.Params("terminal"), entity.ScannedProduct{
		ProductID:     in.ProductID,
		BatchID:       in.BatchID,
		Name:          in.ProductName,
		SKU:           in.SKU,
		Barcode:       in.Barcode,
		SellingPrice:  in.UnitPrice,
		CostPrice:     in.CostPrice,
		TaxRate:       in.TaxRate,
		StockAtBranch: in.MaxQuantity,
	}, qty)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateLine cambia cantidad y/o descuento de una línea (:line = product_id).
func (h *POSHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.UpdateLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	terminal := c.Params("terminal")
	productID := c.Params("line")

	var resp *dto.CartResponse
	var err error
	if in.Quantity != nil {
		resp, err = h.carts.SetQuantity(terminal, productID, in.BatchID, *in.Quantity)
		if err != nil {
			return respondError(c, err)
		}
	}
	if in.DiscountPercent != nil {
		resp, err = h.carts.SetLineDiscount(terminal, productID, in.BatchID, *in.DiscountPercent)
		if err != nil {
			return respondError(c, err)
		}
	}
	if resp == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity o discount_percent requerido"})
	}
	return c.JSON(resp)
}

// RemoveLine elimina una línea (:line = product_id, lote por query ?batch=).
func (h *POSHandler) RemoveLine(c *fiber.Ctx) error {
	resp, err := h.carts.RemoveLine(c.Params("terminal"), c.Params("line"), c.Query("batch"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// SetCartDiscount fija el descuento a nivel carrito.
func (h *POSHandler) SetCartDiscount(c *fiber.Ctx) error {
	var in dto.CartDiscountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.carts.SetCartDiscount(c.Params("terminal"), in.Kind, in.Value)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// SetCustomer asocia (o quita, con id vacío) el cliente del carrito.
func (h *POSHandler) SetCustomer(c *fiber.Ctx) error {
	var in dto.CustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.carts.SetCustomer(c.Params("terminal"), in.CustomerID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPayment fija método de pago y monto recibido antes del checkout.
func (h *POSHandler) SetPayment(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.carts.SetPayment(c.Params("terminal"), in.Method, in.AmountTendered); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Hold retiene la venta en curso. Con el carrito vacío responde 204 sin crear nada.
func (h *POSHandler) Hold(c *fiber.Ctx) error {
	var in dto.HoldRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	held, err := h.carts.HoldSale(c.Params("terminal"), in.Label)
	if err != nil {
		return respondError(c, err)
	}
	if held == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(held)
}

// Recall recupera una venta en espera (auto-reteniendo el carrito ocupado).
func (h *POSHandler) Recall(c *fiber.Ctx) error {
	resp, err := h.carts.RecallSale(c.Params("terminal"), c.Params("holdId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// HeldSales lista las ventas en espera de la terminal.
func (h *POSHandler) HeldSales(c *fiber.Ctx) error {
	list, err := h.carts.HeldSales(c.Params("terminal"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.HeldSaleResponse, 0, len(list))
	for _, held := range list {
		out = append(out, dto.HeldSaleResponse{
			ID:     held.ID,
			Label:  held.Label,
			Lines:  len(held.Lines),
			HeldAt: held.HeldAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.JSON(out)
}

// DeleteHeld elimina una venta en espera.
func (h *POSHandler) DeleteHeld(c *fiber.Ctx) error {
	if err := h.carts.DeleteHeldSale(c.Params("holdId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Checkout cierra la venta contra el ledger y devuelve el registro confirmado.
func (h *POSHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sale, err := h.carts.Checkout(c.Context(), c.Params("terminal"), GetBranchID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// Receipt devuelve el tiquete PDF de la última venta confirmada de la terminal.
func (h *POSHandler) Receipt(c *fiber.Ctx) error {
	sale := h.carts.LastSale(c.Params("terminal"))
	if sale == nil || sale.ID != c.Params("saleId") {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "venta no disponible en esta terminal"})
	}
	pdfBytes, err := h.receipts.GenerateReceiptPDF(c.Context(), sale)
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `inline; filename="tiquete-`+sale.ID+`.pdf"`)
	return c.Send(pdfBytes)
}
