package pos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/events"
	"github.com/medlan/pharmacy-pos/internal/application/locker"
	"github.com/medlan/pharmacy-pos/internal/application/ports"
	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	pricing "github.com/medlan/pharmacy-pos/internal/domain/pos"
	"github.com/medlan/pharmacy-pos/internal/domain/repository"
)

// CartService motor de carrito y precios del punto de venta. Una terminal tiene
// exactamente un carrito activo; las ventas en espera son snapshots sueltos.
// Los comandos sobre la misma terminal se serializan: cada uno se procesa
// completo (incluida la ida al ledger en el checkout) antes de aceptar el siguiente.
type CartService struct {
	sessions repository.SessionRepository
	held     repository.HeldSaleRepository
	ledger   ports.LedgerService
	bus      *events.Bus
	locks    *locker.KeyedMutex

	mu        sync.RWMutex
	lastSales map[string]*entity.Sale // última venta confirmada por terminal, para el recibo
}

// NewCartService construye el motor de carrito.
func NewCartService(
	sessions repository.SessionRepository,
	held repository.HeldSaleRepository,
	ledger ports.LedgerService,
	bus *events.Bus,
) *CartService {
	return &CartService{
		sessions:  sessions,
		held:      held,
		ledger:    ledger,
		bus:       bus,
		locks:     locker.New(),
		lastSales: make(map[string]*entity.Sale),
	}
}

// loadCart devuelve el carrito activo de la terminal, creando uno vacío si no existe.
func (s *CartService) loadCart(terminalID string) (*entity.Cart, error) {
	cart, err := s.sessions.GetCart(terminalID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = entity.NewCart()
	}
	return cart, nil
}

// Cart devuelve el carrito activo y sus totales derivados.
func (s *CartService) Cart(terminalID string) (*dto.CartResponse, error) {
	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	return &dto.CartResponse{Cart: cart, Totals: pricing.Compute(cart)}, nil
}

// AddLine agrega un producto al carrito. Si ya existe una línea con el mismo
// (producto, lote) incrementa su cantidad sin recortar; el recorte al techo de
// stock ocurre en SetQuantity. Cantidad <= 0 no tiene efecto: quitar una línea
// se pide explícitamente vía SetQuantity.
func (s *CartService) AddLine(terminalID string, p entity.ScannedProduct, quantity int) (*dto.CartResponse, error) {
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return &dto.CartResponse{Cart: cart, Totals: pricing.Compute(cart)}, nil
	}

	if i := cart.FindLine(p.ProductID, p.BatchID); i >= 0 {
		cart.Lines[i].Quantity += quantity
	} else {
		maxQty := p.StockAtBranch
		if maxQty <= 0 {
			maxQty = 999
		}
		cart.Lines = append(cart.Lines, entity.CartLine{
			ProductID:           p.ProductID,
			BatchID:             p.BatchID,
			ProductName:         p.Name,
			SKU:                 p.SKU,
			Barcode:             p.Barcode,
			UnitPrice:           p.SellingPrice,
			CostPrice:           p.CostPrice,
			Quantity:            quantity,
			MaxQuantity:         maxQty,
			LineDiscountPercent: decimal.Zero,
			TaxRatePercent:      p.TaxRate,
		})
	}

	if err := s.sessions.SaveCart(terminalID, cart); err != nil {
		return nil, err
	}
	return &dto.CartResponse{Cart: cart, Totals: pricing.Compute(cart)}, nil
}

// AcceptScannedProduct implementa el consumidor del Scan Guard: un producto
// seguro (o autorizado) entra al carrito con cantidad 1.
func (s *CartService) AcceptScannedProduct(_ context.Context, terminalID string, p entity.ScannedProduct) error {
	_, err := s.AddLine(terminalID, p, 1)
	return err
}

// SetQuantity fija la cantidad de una línea. <= 0 elimina la línea; por encima
// del techo de stock se recorta en silencio: el techo es guía de UI, la
// autoridad real es el ledger en el checkout.
func (s *CartService) SetQuantity(terminalID, productID, batchID string, qty int) (*dto.CartResponse, error) {
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	i := cart.FindLine(productID, batchID)
	if i < 0 {
		return nil, fmt.Errorf("línea (%s,%s): %w", productID, batchID, domain.ErrNotFound)
	}

	if qty <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		if qty > cart.Lines[i].MaxQuantity {
			qty = cart.Lines[i].MaxQuantity
		}
		cart.Lines[i].Quantity = qty
	}

	if err := s.sessions.SaveCart(terminalID, cart); err != nil {
		return nil, err
	}
	return &dto.CartResponse{Cart: cart, Totals: pricing.Compute(cart)}, nil
}

// SetLineDiscount fija el descuento porcentual de una línea, recortado a [0,100].
func (s *CartService) SetLineDiscount(terminalID, productID, batchID string, percent decimal.Decimal) (*dto.CartResponse, error) {
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	i := cart.FindLine(productID, batchID)
	if i < 0 {
		return nil, fmt.Errorf("línea (%s,%s): %w", productID, batchID, domain.ErrNotFound)
	}
	cart.Lines[i].LineDiscountPercent = pricing.ClampPercent(percent)

	if err := s.sessions.SaveCart(terminalID, cart); err != nil {
		return nil, err
	}
	return &dto.CartResponse{Cart: cart, Totals: pricing.Compute(cart)}, nil
}

// RemoveLine elimina una línea del carrito.
func (s *CartService) RemoveLine(terminalID, productID, batchID string) (*dto.CartResponse, error) {
	return s.SetQuantity(terminalID, productID, batchID, 0)
}

// SetCartDiscount fija el descuento a nivel carrito. El porcentaje se recorta a
// [0,100]; el monto fijo se guarda tal cual y se recorta al subtotal únicamente
// al calcular totales.
func (s *CartService) SetCartDiscount(terminalID, kind string, value decimal.Decimal) (*dto.CartResponse, error) {
	if kind != entity.DiscountPercent && kind != entity.DiscountFixed {
		return nil, fmt.Errorf("tipo de descuento %q: %w", kind, domain.ErrInvalidInput)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("descuento negativo: %w", domain.ErrInvalidInput)
	}
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	if kind == entity.DiscountPercent {
		value = pricing.ClampPercent(value)
	}
	cart.CartDiscount = entity.CartDiscount{Kind: kind, Value: value}

	if err := s.sessions.SaveCart(terminalID, cart); err != nil {
		return nil, err
	}
	return &dto.CartResponse{Cart: cart, Totals: pricing.Compute(cart)}, nil
}

// SetCustomer asocia (o desasocia, con id vacío) el cliente del carrito.
func (s *CartService) SetCustomer(terminalID, customerID string) error {
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return err
	}
	cart.CustomerID = customerID
	return s.sessions.SaveCart(terminalID, cart)
}

// SetPayment fija método de pago y monto recibido.
func (s *CartService) SetPayment(terminalID, method string, tendered decimal.Decimal) error {
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return err
	}
	if method != "" {
		cart.PaymentMethod = method
	}
	if !tendered.IsNegative() {
		cart.AmountTendered = tendered
	}
	return s.sessions.SaveCart(terminalID, cart)
}

// HoldSale retiene la venta en curso como snapshot y deja el carrito vacío.
// Con el carrito vacío no hace nada (no se crean retenciones vacías).
func (s *CartService) HoldSale(terminalID, label string) (*entity.HeldSale, error) {
	defer s.locks.Lock(terminalID)()
	return s.holdLocked(terminalID, label)
}

// holdLocked versión interna sin lock, para reutilizar desde RecallSale.
func (s *CartService) holdLocked(terminalID, label string) (*entity.HeldSale, error) {
	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, nil
	}
	if label == "" {
		existing, err := s.held.ListByTerminal(terminalID)
		if err != nil {
			return nil, err
		}
		label = fmt.Sprintf("Venta %d", len(existing)+1)
	}

	lines := make([]entity.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	held := &entity.HeldSale{
		ID:           uuid.New().String(),
		TerminalID:   terminalID,
		Label:        label,
		Lines:        lines,
		CustomerID:   cart.CustomerID,
		CartDiscount: cart.CartDiscount,
		HeldAt:       time.Now(),
	}
	if err := s.held.Create(held); err != nil {
		return nil, err
	}
	if err := s.sessions.SaveCart(terminalID, entity.NewCart()); err != nil {
		return nil, err
	}
	return held, nil
}

// RecallSale recupera una venta en espera. Si el carrito activo tiene líneas,
// primero lo retiene como "Auto-saved" (comportamiento de pila: nunca se pierde
// trabajo en curso). La retención recuperada se elimina.
func (s *CartService) RecallSale(terminalID, holdID string) (*dto.CartResponse, error) {
	defer s.locks.Lock(terminalID)()

	held, err := s.held.GetByID(holdID)
	if err != nil {
		return nil, err
	}
	if held == nil {
		return nil, fmt.Errorf("venta en espera %s: %w", holdID, domain.ErrNotFound)
	}

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	if !cart.IsEmpty() {
		if _, err := s.holdLocked(terminalID, "Auto-saved"); err != nil {
			return nil, err
		}
	}

	restored := entity.NewCart()
	restored.Lines = make([]entity.CartLine, len(held.Lines))
	copy(restored.Lines, held.Lines)
	restored.CustomerID = held.CustomerID
	restored.CartDiscount = held.CartDiscount

	if err := s.sessions.SaveCart(terminalID, restored); err != nil {
		return nil, err
	}
	if err := s.held.Delete(holdID); err != nil {
		return nil, err
	}
	return &dto.CartResponse{Cart: restored, Totals: pricing.Compute(restored)}, nil
}

// HeldSales lista las ventas en espera de la terminal.
func (s *CartService) HeldSales(terminalID string) ([]*entity.HeldSale, error) {
	return s.held.ListByTerminal(terminalID)
}

// DeleteHeldSale elimina una venta en espera por id.
func (s *CartService) DeleteHeldSale(holdID string) error {
	return s.held.Delete(holdID)
}

// Checkout congela los totales, registra la venta en el Ledger Service y,
// solo tras la confirmación positiva, limpia el carrito. Si la llamada remota
// falla, el carrito queda intacto: nunca se da por vendida una venta sin ack.
func (s *CartService) Checkout(ctx context.Context, terminalID, branchID, userID string, in dto.CheckoutRequest) (*entity.Sale, error) {
	defer s.locks.Lock(terminalID)()

	cart, err := s.loadCart(terminalID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	if in.PaymentMethod != "" {
		cart.PaymentMethod = in.PaymentMethod
	}
	if !in.AmountTendered.IsNegative() && !in.AmountTendered.IsZero() {
		cart.AmountTendered = in.AmountTendered
	}

	tot := pricing.Compute(cart)
	sale := &entity.Sale{
		ID:             uuid.New().String(),
		TerminalID:     terminalID,
		BranchID:       branchID,
		CustomerID:     cart.CustomerID,
		Subtotal:       tot.Subtotal,
		ItemDiscount:   tot.ItemDiscountTotal,
		CartDiscount:   tot.CartDiscountAmt,
		TaxTotal:       tot.TaxTotal,
		GrandTotal:     tot.GrandTotal,
		PaymentMethod:  cart.PaymentMethod,
		AmountTendered: cart.AmountTendered,
		ChangeDue:      tot.ChangeDue,
		SoldBy:         userID,
		SoldAt:         time.Now(),
	}
	for _, l := range cart.Lines {
		sale.Lines = append(sale.Lines, entity.SaleLine{
			ProductID:           l.ProductID,
			BatchID:             l.BatchID,
			ProductName:         l.ProductName,
			UnitPrice:           l.UnitPrice,
			Quantity:            l.Quantity,
			LineDiscountPercent: l.LineDiscountPercent,
			TaxRatePercent:      l.TaxRatePercent,
			LineNet:             pricing.LineNet(l),
		})
	}

	remoteID, err := s.ledger.CommitSale(ctx, sale)
	if err != nil {
		return nil, fmt.Errorf("registrar venta: %w", err)
	}
	if remoteID != "" {
		sale.ID = remoteID
	}

	if err := s.sessions.SaveCart(terminalID, entity.NewCart()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastSales[terminalID] = sale
	s.mu.Unlock()

	s.bus.Invalidate(events.ViewInventoryByBranch, events.ViewSales)
	return sale, nil
}

// LastSale devuelve la última venta confirmada de la terminal (para el recibo), o nil.
func (s *CartService) LastSale(terminalID string) *entity.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSales[terminalID]
}
