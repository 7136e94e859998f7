// Package transfer implementa el traslado de stock entre sucursales:
// REQUESTED → APPROVED → DISPATCHED → RECEIVED, con rechazo desde REQUESTED.
// El despacho descuenta stock en la sucursal origen y la recepción lo suma en
// destino, siempre contra el Ledger Service y nunca antes de su confirmación.
package transfer

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

// UseCase orquesta los traslados. Los comandos sobre el mismo documento se
// serializan con un lock por id.
type UseCase struct {
	transfers repository.StockTransferRepository
	ledger    ports.LedgerService
	bus       *events.Bus
	locks     *locker.KeyedMutex
	log       zerolog.Logger
}

// NewUseCase construye el caso de uso de traslados.
func NewUseCase(transfers repository.StockTransferRepository, ledger ports.LedgerService, bus *events.Bus, log zerolog.Logger) *UseCase {
	return &UseCase{
		transfers: transfers,
		ledger:    ledger,
		bus:       bus,
		locks:     locker.New(),
		log:       log.With().Str("component", "transfer").Logger(),
	}
}

// Create registra la solicitud de traslado en REQUESTED. Origen y destino deben
// diferir y cada línea pide una cantidad positiva.
func (u *UseCase) Create(actor domain.Actor, in dto.CreateTransferRequest) (*entity.StockTransfer, error) {
	if in.SourceBranchID == "" || in.DestBranchID == "" {
		return nil, fmt.Errorf("sucursales origen y destino son obligatorias: %w", domain.ErrInvalidInput)
	}
	if in.SourceBranchID == in.DestBranchID {
		return nil, fmt.Errorf("origen y destino no pueden coincidir: %w", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("un traslado requiere al menos un ítem: %w", domain.ErrInvalidInput)
	}

	items := make([]entity.TransferItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.RequestedQty <= 0 {
			return nil, fmt.Errorf("ítem sin producto o con cantidad no positiva: %w", domain.ErrInvalidInput)
		}
		items = append(items, entity.TransferItem{
			ID:           uuid.New().String(),
			ProductID:    it.ProductID,
			BatchID:      it.BatchID,
			RequestedQty: it.RequestedQty,
		})
	}

	count, err := u.transfers.Count()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	tr := &entity.StockTransfer{
		ID:             uuid.New().String(),
		Number:         fmt.Sprintf("ST-%d-%05d", now.Year(), count+1),
		SourceBranchID: in.SourceBranchID,
		DestBranchID:   in.DestBranchID,
		Items:          items,
		Status:         entity.TransferStatusRequested,
		RequestedBy:    actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.transfers.Create(tr); err != nil {
		return nil, err
	}

	u.log.Info().Str("transfer", tr.Number).
		Str("source", tr.SourceBranchID).Str("dest", tr.DestBranchID).
		Msg("traslado solicitado")
	u.bus.Invalidate(events.ViewTransfers)
	return tr, nil
}

// Approve aprueba la solicitud (REQUESTED → APPROVED). Solo aprueba quien tiene
// la capacidad y pertenece a la sucursal destino: la que pidió la mercancía.
func (u *UseCase) Approve(actor domain.Actor, id string) (*entity.StockTransfer, error) {
	if !actor.Can(domain.CapTransferApprove) {
		return nil, fmt.Errorf("aprobar traslado: %w", domain.ErrForbidden)
	}
	defer u.locks.Lock(id)()

	tr, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if tr.Status != entity.TransferStatusRequested {
		return nil, transitionErr(tr, entity.TransferStatusApproved)
	}
	if actor.BranchID != tr.DestBranchID {
		return nil, fmt.Errorf("solo la sucursal solicitante aprueba su traslado: %w", domain.ErrForbidden)
	}

	tr.Status = entity.TransferStatusApproved
	tr.ApprovedBy = actor.UserID
	tr.UpdatedAt = time.Now()

	if err := u.transfers.Update(tr); err != nil {
		return nil, err
	}
	u.bus.Invalidate(events.ViewTransfers)
	return tr, nil
}

// Reject rechaza la solicitud (REQUESTED → REJECTED) con motivo obligatorio.
func (u *UseCase) Reject(actor domain.Actor, id, reason string) (*entity.StockTransfer, error) {
	if !actor.Can(domain.CapTransferApprove) {
		return nil, fmt.Errorf("rechazar traslado: %w", domain.ErrForbidden)
	}
	if reason == "" {
		return nil, fmt.Errorf("el rechazo exige un motivo: %w", domain.ErrInvalidInput)
	}
	defer u.locks.Lock(id)()

	tr, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if tr.Status != entity.TransferStatusRequested {
		return nil, transitionErr(tr, entity.TransferStatusRejected)
	}

	tr.Status = entity.TransferStatusRejected
	tr.RejectReason = reason
	tr.UpdatedAt = time.Now()

	if err := u.transfers.Update(tr); err != nil {
		return nil, err
	}
	u.log.Info().Str("transfer", tr.Number).Str("reason", reason).Msg("traslado rechazado")
	u.bus.Invalidate(events.ViewTransfers)
	return tr, nil
}

// Dispatch despacha desde origen (APPROVED → DISPATCHED) y descuenta el stock
// despachado en la sucursal origen. Cada línea puede despachar menos de lo
// solicitado (cumplimiento parcial); las líneas no listadas se despachan
// completas. Si una baja de stock es rechazada el documento queda en APPROVED y
// el reintento es seguro por la clave de idempotencia st-out:<id>:<ítem>.
func (u *UseCase) Dispatch(ctx context.Context, actor domain.Actor, id string, in dto.DispatchTransferRequest) (*entity.StockTransfer, error) {
	if !actor.Can(domain.CapTransferDispatch) {
		return nil, fmt.Errorf("despachar traslado: %w", domain.ErrForbidden)
	}
	defer u.locks.Lock(id)()

	tr, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if tr.Status != entity.TransferStatusApproved {
		return nil, transitionErr(tr, entity.TransferStatusDispatched)
	}
	if actor.BranchID != tr.SourceBranchID {
		return nil, fmt.Errorf("solo la sucursal origen despacha el traslado: %w", domain.ErrForbidden)
	}

	requested := make(map[string]int, len(in.Items))
	for _, it := range in.Items {
		requested[it.ProductID+"|"+it.BatchID] = it.DispatchedQty
	}
	for i := range tr.Items {
		qty, ok := requested[tr.Items[i].ProductID+"|"+tr.Items[i].BatchID]
		if !ok {
			qty = tr.Items[i].RequestedQty
		}
		if qty < 0 || qty > tr.Items[i].RequestedQty {
			return nil, fmt.Errorf("despacho de %s fuera de rango [0,%d]: %w",
				tr.Items[i].ProductID, tr.Items[i].RequestedQty, domain.ErrInvalidInput)
		}
		tr.Items[i].DispatchedQty = qty
	}

	for _, it := range tr.Items {
		if it.DispatchedQty == 0 {
			continue
		}
		err := u.ledger.DecreaseStock(ctx, ports.StockInstruction{
			BranchID:       tr.SourceBranchID,
			ProductID:      it.ProductID,
			BatchNumber:    it.BatchID,
			Quantity:       it.DispatchedQty,
			Reference:      tr.Number,
			IdempotencyKey: fmt.Sprintf("st-out:%s:%s", tr.ID, it.ID),
		})
		if err != nil {
			u.log.Error().Err(err).Str("transfer", tr.Number).Str("product", it.ProductID).
				Msg("baja de stock rechazada; el traslado permanece en APPROVED")
			return nil, fmt.Errorf("descontar stock de %s: %w", it.ProductID, err)
		}
	}

	tr.Status = entity.TransferStatusDispatched
	tr.DispatchedBy = actor.UserID
	tr.UpdatedAt = time.Now()

	if err := u.transfers.Update(tr); err != nil {
		return nil, err
	}
	u.log.Info().Str("transfer", tr.Number).Msg("traslado despachado, stock descontado en origen")
	u.bus.Invalidate(events.ViewTransfers, events.ViewInventoryByBranch)
	return tr, nil
}

// Receive recibe en destino (DISPATCHED → RECEIVED) y suma el stock recibido en
// la sucursal destino. Cada línea puede recibir menos de lo despachado; las no
// listadas se asumen recibidas completas. Devuelve los faltantes
// (despachado - recibido) como dato estructurado: el faltante se reporta,
// nunca se ajusta en silencio.
func (u *UseCase) Receive(ctx context.Context, actor domain.Actor, id string, in dto.ReceiveTransferRequest) (*entity.StockTransfer, []entity.TransferDiscrepancy, error) {
	if !actor.Can(domain.CapTransferReceive) {
		return nil, nil, fmt.Errorf("recibir traslado: %w", domain.ErrForbidden)
	}
	defer u.locks.Lock(id)()

	tr, err := u.get(id)
	if err != nil {
		return nil, nil, err
	}
	if tr.Status != entity.TransferStatusDispatched {
		return nil, nil, transitionErr(tr, entity.TransferStatusReceived)
	}
	if actor.BranchID != tr.DestBranchID {
		return nil, nil, fmt.Errorf("solo la sucursal destino recibe el traslado: %w", domain.ErrForbidden)
	}

	received := make(map[string]int, len(in.Items))
	for _, it := range in.Items {
		received[it.ProductID+"|"+it.BatchID] = it.ReceivedQty
	}
	for i := range tr.Items {
		qty, ok := received[tr.Items[i].ProductID+"|"+tr.Items[i].BatchID]
		if !ok {
			qty = tr.Items[i].DispatchedQty
		}
		if qty < 0 || qty > tr.Items[i].DispatchedQty {
			return nil, nil, fmt.Errorf("recepción de %s fuera de rango [0,%d]: %w",
				tr.Items[i].ProductID, tr.Items[i].DispatchedQty, domain.ErrInvalidInput)
		}
		tr.Items[i].ReceivedQty = qty
	}

	var discrepancies []entity.TransferDiscrepancy
	for _, it := range tr.Items {
		if it.ReceivedQty > 0 {
			err := u.ledger.IncreaseStock(ctx, ports.StockInstruction{
				BranchID:       tr.DestBranchID,
				ProductID:      it.ProductID,
				BatchNumber:    it.BatchID,
				Quantity:       it.ReceivedQty,
				Reference:      tr.Number,
				IdempotencyKey: fmt.Sprintf("st-in:%s:%s", tr.ID, it.ID),
			})
			if err != nil {
				u.log.Error().Err(err).Str("transfer", tr.Number).Str("product", it.ProductID).
					Msg("alta de stock rechazada; el traslado permanece en DISPATCHED")
				return nil, nil, fmt.Errorf("sumar stock de %s: %w", it.ProductID, err)
			}
		}
		if it.ReceivedQty < it.DispatchedQty {
			discrepancies = append(discrepancies, entity.TransferDiscrepancy{
				ProductID:     it.ProductID,
				BatchID:       it.BatchID,
				DispatchedQty: it.DispatchedQty,
				ReceivedQty:   it.ReceivedQty,
				Shortfall:     it.DispatchedQty - it.ReceivedQty,
			})
		}
	}

	tr.Status = entity.TransferStatusReceived
	tr.ReceivedBy = actor.UserID
	tr.UpdatedAt = time.Now()

	if err := u.transfers.Update(tr); err != nil {
		return nil, nil, err
	}
	u.log.Info().Str("transfer", tr.Number).Int("shortfalls", len(discrepancies)).
		Msg("traslado recibido, stock sumado en destino")
	u.bus.Invalidate(events.ViewTransfers, events.ViewInventoryByBranch)
	return tr, discrepancies, nil
}

// GetByID devuelve el traslado por id.
func (u *UseCase) GetByID(id string) (*entity.StockTransfer, error) {
	return u.get(id)
}

// ListByBranch lista los traslados donde la sucursal es origen o destino, paginados.
func (u *UseCase) ListByBranch(branchID string, page dto.PageRequest) ([]*entity.StockTransfer, error) {
	page.DefaultPage()
	return u.transfers.ListByBranch(branchID, page.Limit, page.Offset)
}

func (u *UseCase) get(id string) (*entity.StockTransfer, error) {
	tr, err := u.transfers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("traslado %s: %w", id, domain.ErrNotFound)
	}
	return tr, nil
}

func transitionErr(t *entity.StockTransfer, to string) error {
	return fmt.Errorf("traslado %s: %s → %s: %w", t.Number, t.Status, to, domain.ErrInvalidStateTransition)
}
