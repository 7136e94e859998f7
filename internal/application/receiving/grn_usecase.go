// Package receiving implementa el ciclo de vida del GRN (Goods Received Note):
// DRAFT → PENDING → VERIFIED → COMPLETED, con cancelación desde DRAFT/PENDING.
// El stock de la sucursal se afecta exactamente una vez, al completar, y solo
// tras la confirmación del Ledger Service por cada ítem.
package receiving

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/events"
	"github.com/medlan/pharmacy-pos/internal/application/locker"
	"github.com/medlan/pharmacy-pos/internal/application/ports"
	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	"github.com/medlan/pharmacy-pos/internal/domain/repository"
)

// IncompleteItemsError agrupa los ítems que impiden completar un GRN, con los
// campos faltantes de cada uno, para que la terminal los señale en bloque.
type IncompleteItemsError struct {
	Issues []dto.GRNItemIssue
}

func (e *IncompleteItemsError) Error() string {
	return fmt.Sprintf("%d ítems con datos incompletos", len(e.Issues))
}

// Unwrap permite detectar el caso con errors.Is(err, domain.ErrIncompleteItemData).
func (e *IncompleteItemsError) Unwrap() error { return domain.ErrIncompleteItemData }

// GRNUseCase orquesta los documentos de recepción. Los comandos sobre el mismo
// documento se serializan con un lock por id.
type GRNUseCase struct {
	grns   repository.GRNRepository
	ledger ports.LedgerService
	bus    *events.Bus
	locks  *locker.KeyedMutex
	log    zerolog.Logger
}

// NewGRNUseCase construye el caso de uso de recepción.
func NewGRNUseCase(grns repository.GRNRepository, ledger ports.LedgerService, bus *events.Bus, log zerolog.Logger) *GRNUseCase {
	return &GRNUseCase{
		grns:   grns,
		ledger: ledger,
		bus:    bus,
		locks:  locker.New(),
		log:    log.With().Str("component", "grn").Logger(),
	}
}

func buildItems(in []dto.GRNItemRequest) []entity.GRNItem {
	items := make([]entity.GRNItem, 0, len(in))
	for _, it := range in {
		items = append(items, entity.GRNItem{
			ID:                uuid.New().String(),
			ProductID:         it.ProductID,
			BatchNumber:       it.BatchNumber,
			Quantity:          it.Quantity,
			CostPrice:         it.CostPrice,
			SellingPrice:      it.SellingPrice,
			MRP:               it.MRP,
			ManufacturingDate: it.ManufacturingDate,
			ExpiryDate:        it.ExpiryDate,
		})
	}
	return items
}

// Create da de alta un GRN en DRAFT con número consecutivo GRN-YYYY-NNNNN.
// En borrador se admiten ítems incompletos: se completan durante la verificación física.
func (u *GRNUseCase) Create(actor domain.Actor, in dto.CreateGRNRequest) (*entity.GRN, error) {
	if in.SupplierID == "" || in.BranchID == "" {
		return nil, fmt.Errorf("proveedor y sucursal son obligatorios: %w", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("un GRN requiere al menos un ítem: %w", domain.ErrInvalidInput)
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("ítem sin producto o con cantidad no positiva: %w", domain.ErrInvalidInput)
		}
	}

	count, err := u.grns.Count()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	received := in.ReceivedDate
	if received.IsZero() {
		received = now
	}
	grn := &entity.GRN{
		ID:              uuid.New().String(),
		Number:          fmt.Sprintf("GRN-%d-%05d", now.Year(), count+1),
		SupplierID:      in.SupplierID,
		BranchID:        in.BranchID,
		PurchaseOrderID: in.PurchaseOrderID,
		ReceivedDate:    received,
		Items:           buildItems(in.Items),
		Status:          entity.GRNStatusDraft,
		Remarks:         in.Remarks,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.grns.Create(grn); err != nil {
		return nil, err
	}

	u.log.Info().Str("grn", grn.Number).Str("branch", grn.BranchID).Msg("GRN creado en borrador")
	u.bus.Invalidate(events.ViewGRNs)
	return grn, nil
}

// Update reescribe cabecera e ítems. Solo DRAFT y PENDING son editables;
// a partir de VERIFIED el contenido queda congelado.
func (u *GRNUseCase) Update(actor domain.Actor, id string, in dto.CreateGRNRequest) (*entity.GRN, error) {
	defer u.locks.Lock(id)()

	grn, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if !grn.Editable() {
		return nil, fmt.Errorf("GRN %s en estado %s no es editable: %w", grn.Number, grn.Status, domain.ErrInvalidStateTransition)
	}

	if in.SupplierID != "" {
		grn.SupplierID = in.SupplierID
	}
	if in.PurchaseOrderID != "" {
		grn.PurchaseOrderID = in.PurchaseOrderID
	}
	if !in.ReceivedDate.IsZero() {
		grn.ReceivedDate = in.ReceivedDate
	}
	if in.Remarks != "" {
		grn.Remarks = in.Remarks
	}
	if len(in.Items) > 0 {
		grn.Items = buildItems(in.Items)
	}
	grn.UpdatedAt = time.Now()

	if err := u.grns.Update(grn); err != nil {
		return nil, err
	}
	u.bus.Invalidate(events.ViewGRNs)
	return grn, nil
}

// Submit envía el borrador a verificación (DRAFT → PENDING).
func (u *GRNUseCase) Submit(actor domain.Actor, id string) (*entity.GRN, error) {
	defer u.locks.Lock(id)()

	grn, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if grn.Status != entity.GRNStatusDraft {
		return nil, transitionErr(grn, entity.GRNStatusPending)
	}
	grn.Status = entity.GRNStatusPending
	grn.UpdatedAt = time.Now()

	if err := u.grns.Update(grn); err != nil {
		return nil, err
	}
	u.bus.Invalidate(events.ViewGRNs)
	return grn, nil
}

// Verify marca la mercancía como cotejada físicamente (PENDING → VERIFIED).
// Exige la capacidad de verificación; verificar un DRAFT directamente es inválido.
func (u *GRNUseCase) Verify(actor domain.Actor, id string) (*entity.GRN, error) {
	if !actor.Can(domain.CapGRNVerify) {
		return nil, fmt.Errorf("verificar GRN: %w", domain.ErrForbidden)
	}
	defer u.locks.Lock(id)()

	grn, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if grn.Status != entity.GRNStatusPending {
		return nil, transitionErr(grn, entity.GRNStatusVerified)
	}
	grn.Status = entity.GRNStatusVerified
	grn.VerifiedBy = actor.UserID
	grn.UpdatedAt = time.Now()

	if err := u.grns.Update(grn); err != nil {
		return nil, err
	}
	u.log.Info().Str("grn", grn.Number).Str("user", actor.UserID).Msg("GRN verificado")
	u.bus.Invalidate(events.ViewGRNs)
	return grn, nil
}

// Complete cierra el GRN (VERIFIED → COMPLETED) emitiendo un aumento de stock
// por ítem contra el Ledger Service. Antes de tocar stock valida que todos los
// ítems tengan lote, fechas y precios; si no, devuelve IncompleteItemsError sin
// efecto alguno. El estado local pasa a COMPLETED solo cuando todas las
// instrucciones fueron confirmadas; ante una falla a mitad de camino el GRN
// queda en VERIFIED y el reintento es seguro gracias a la clave de idempotencia
// grn:<id>:<ítem> de cada instrucción. Completar un GRN ya COMPLETED se rechaza
// y no emite ninguna instrucción.
func (u *GRNUseCase) Complete(ctx context.Context, actor domain.Actor, id string) (*entity.GRN, error) {
	if !actor.Can(domain.CapGRNComplete) {
		return nil, fmt.Errorf("completar GRN: %w", domain.ErrForbidden)
	}
	defer u.locks.Lock(id)()

	grn, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if grn.Status != entity.GRNStatusVerified {
		return nil, transitionErr(grn, entity.GRNStatusCompleted)
	}

	if issues := incompleteItems(grn); len(issues) > 0 {
		return nil, &IncompleteItemsError{Issues: issues}
	}

	for _, it := range grn.Items {
		err := u.ledger.IncreaseStock(ctx, ports.StockInstruction{
			BranchID:       grn.BranchID,
			ProductID:      it.ProductID,
			BatchNumber:    it.BatchNumber,
			Quantity:       it.Quantity,
			UnitCost:       it.CostPrice,
			ExpiryDate:     it.ExpiryDate,
			Reference:      grn.Number,
			IdempotencyKey: fmt.Sprintf("grn:%s:%s", grn.ID, it.ID),
		})
		if err != nil {
			u.log.Error().Err(err).Str("grn", grn.Number).Str("product", it.ProductID).
				Msg("aumento de stock rechazado; el GRN permanece en VERIFIED")
			return nil, fmt.Errorf("aumentar stock de %s: %w", it.ProductID, err)
		}
	}

	grn.Status = entity.GRNStatusCompleted
	grn.CompletedBy = actor.UserID
	grn.UpdatedAt = time.Now()

	if err := u.grns.Update(grn); err != nil {
		return nil, err
	}
	u.log.Info().Str("grn", grn.Number).Int("items", len(grn.Items)).Msg("GRN completado, stock aplicado")
	u.bus.Invalidate(events.ViewGRNs, events.ViewInventoryByBranch, events.ViewPurchaseOrders)
	return grn, nil
}

// Cancel anula el documento (DRAFT/PENDING → CANCELLED) con motivo obligatorio.
// Un GRN VERIFIED o COMPLETED ya no se cancela.
func (u *GRNUseCase) Cancel(actor domain.Actor, id, reason string) (*entity.GRN, error) {
	if reason == "" {
		return nil, fmt.Errorf("la cancelación exige un motivo: %w", domain.ErrInvalidInput)
	}
	defer u.locks.Lock(id)()

	grn, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if !grn.Editable() {
		return nil, transitionErr(grn, entity.GRNStatusCancelled)
	}
	grn.Status = entity.GRNStatusCancelled
	if grn.Remarks != "" {
		grn.Remarks += " | "
	}
	grn.Remarks += reason
	grn.UpdatedAt = time.Now()

	if err := u.grns.Update(grn); err != nil {
		return nil, err
	}
	u.log.Info().Str("grn", grn.Number).Str("reason", reason).Msg("GRN cancelado")
	u.bus.Invalidate(events.ViewGRNs)
	return grn, nil
}

// GetByID devuelve el documento por id.
func (u *GRNUseCase) GetByID(id string) (*entity.GRN, error) {
	return u.get(id)
}

// ListByBranch lista los GRN de una sucursal, paginados.
func (u *GRNUseCase) ListByBranch(branchID string, page dto.PageRequest) ([]*entity.GRN, error) {
	page.DefaultPage()
	return u.grns.ListByBranch(branchID, page.Limit, page.Offset)
}

func (u *GRNUseCase) get(id string) (*entity.GRN, error) {
	grn, err := u.grns.GetByID(id)
	if err != nil {
		return nil, err
	}
	if grn == nil {
		return nil, fmt.Errorf("GRN %s: %w", id, domain.ErrNotFound)
	}
	return grn, nil
}

func transitionErr(g *entity.GRN, to string) error {
	return fmt.Errorf("GRN %s: %s → %s: %w", g.Number, g.Status, to, domain.ErrInvalidStateTransition)
}

// incompleteItems valida los ítems previo al cierre y devuelve los defectos por ítem.
func incompleteItems(g *entity.GRN) []dto.GRNItemIssue {
	var issues []dto.GRNItemIssue
	for _, it := range g.Items {
		var missing []string
		if it.BatchNumber == "" {
			missing = append(missing, "batch_number")
		}
		if it.ExpiryDate == nil {
			missing = append(missing, "expiry_date")
		}
		if it.ManufacturingDate == nil {
			missing = append(missing, "manufacturing_date")
		}
		if !it.SellingPrice.IsPositive() {
			missing = append(missing, "selling_price")
		}
		if !it.MRP.IsPositive() {
			missing = append(missing, "mrp")
		}
		if it.Quantity <= 0 {
			missing = append(missing, "quantity")
		}
		if len(missing) > 0 {
			issues = append(issues, dto.GRNItemIssue{
				ItemID:        it.ID,
				ProductID:     it.ProductID,
				MissingFields: missing,
			})
		}
	}
	return issues
}
