package transfer

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/events"
	"github.com/medlan/pharmacy-pos/internal/application/ports"
	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

type memTransfers struct {
	byID map[string]*entity.StockTransfer
}

func newMemTransfers() *memTransfers {
	return &memTransfers{byID: make(map[string]*entity.StockTransfer)}
}

func (m *memTransfers) Create(t *entity.StockTransfer) error {
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTransfers) Update(t *entity.StockTransfer) error {
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTransfers) GetByID(id string) (*entity.StockTransfer, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTransfers) ListByBranch(branchID string, _, _ int) ([]*entity.StockTransfer, error) {
	var out []*entity.StockTransfer
	for _, t := range m.byID {
		if t.SourceBranchID == branchID || t.DestBranchID == branchID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTransfers) Count() (int64, error) { return int64(len(m.byID)), nil }

type recordingLedger struct {
	increases []ports.StockInstruction
	decreases []ports.StockInstruction
	failNext  bool
}

func (l *recordingLedger) IncreaseStock(_ context.Context, in ports.StockInstruction) error {
	if l.failNext {
		return domain.ErrRemoteFailure
	}
	l.increases = append(l.increases, in)
	return nil
}

func (l *recordingLedger) DecreaseStock(_ context.Context, in ports.StockInstruction) error {
	if l.failNext {
		return domain.ErrRemoteFailure
	}
	l.decreases = append(l.decreases, in)
	return nil
}

func (l *recordingLedger) CommitSale(context.Context, *entity.Sale) (string, error) {
	return "", domain.ErrRemoteFailure
}

func newUseCase(t *testing.T) (*UseCase, *memTransfers, *recordingLedger) {
	t.Helper()
	repo := newMemTransfers()
	ledger := &recordingLedger{}
	return NewUseCase(repo, ledger, events.NewBus(), zerolog.Nop()), repo, ledger
}

// Actores: b1 es origen, b2 destino.
func managerAt(branch string) domain.Actor {
	return domain.Actor{UserID: "mgr-" + branch, BranchID: branch, Role: "manager", Caps: domain.CapabilitiesForRole("manager")}
}

func cashierAt(branch string) domain.Actor {
	return domain.Actor{UserID: "caj-" + branch, BranchID: branch, Role: "cashier", Caps: domain.CapabilitiesForRole("cashier")}
}

func crearTraslado(t *testing.T, uc *UseCase, qty int) *entity.StockTransfer {
	t.Helper()
	tr, err := uc.Create(cashierAt("b2"), dto.CreateTransferRequest{
		SourceBranchID: "b1",
		DestBranchID:   "b2",
		Items: []dto.TransferItemRequest{
			{ProductID: "prod-1", BatchID: "batch-1", RequestedQty: qty},
		},
	})
	require.NoError(t, err)
	return tr
}

func TestCreate_OrigenYDestinoIguales(t *testing.T) {
	uc, _, _ := newUseCase(t)

	_, err := uc.Create(cashierAt("b1"), dto.CreateTransferRequest{
		SourceBranchID: "b1",
		DestBranchID:   "b1",
		Items:          []dto.TransferItemRequest{{ProductID: "p", RequestedQty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApprove_SoloSucursalDestino(t *testing.T) {
	uc, _, _ := newUseCase(t)
	tr := crearTraslado(t, uc, 50)

	// Gerente de la sucursal origen: no puede aprobar lo que le piden a él.
	_, err := uc.Approve(managerAt("b1"), tr.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ok, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusApproved, ok.Status)
	assert.Equal(t, "mgr-b2", ok.ApprovedBy)
}

func TestApprove_SinCapacidad(t *testing.T) {
	uc, _, _ := newUseCase(t)
	tr := crearTraslado(t, uc, 50)

	_, err := uc.Approve(cashierAt("b2"), tr.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReject_ExigeMotivoYEsTerminal(t *testing.T) {
	uc, _, _ := newUseCase(t)
	tr := crearTraslado(t, uc, 10)

	_, err := uc.Reject(managerAt("b2"), tr.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	rejected, err := uc.Reject(managerAt("b2"), tr.ID, "sin stock disponible")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusRejected, rejected.Status)

	_, err = uc.Approve(managerAt("b2"), tr.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestDispatch_ParcialDescuentaEnOrigen(t *testing.T) {
	uc, _, ledger := newUseCase(t)
	tr := crearTraslado(t, uc, 50)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)

	// El origen solo tiene 50 solicitadas pero despacha 50 completas por defecto;
	// aquí despacha 50 explícitas.
	done, err := uc.Dispatch(context.Background(), cashierAt("b1"), tr.ID, dto.DispatchTransferRequest{
		Items: []dto.DispatchItemRequest{{ProductID: "prod-1", BatchID: "batch-1", DispatchedQty: 50}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusDispatched, done.Status)
	require.Len(t, ledger.decreases, 1)
	assert.Equal(t, "b1", ledger.decreases[0].BranchID)
	assert.Equal(t, 50, ledger.decreases[0].Quantity)
	assert.Equal(t, "st-out:"+tr.ID+":"+done.Items[0].ID, ledger.decreases[0].IdempotencyKey)
}

func TestDispatch_MasDeLoSolicitadoSeRechaza(t *testing.T) {
	uc, _, ledger := newUseCase(t)
	tr := crearTraslado(t, uc, 50)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)

	_, err = uc.Dispatch(context.Background(), cashierAt("b1"), tr.ID, dto.DispatchTransferRequest{
		Items: []dto.DispatchItemRequest{{ProductID: "prod-1", BatchID: "batch-1", DispatchedQty: 60}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, ledger.decreases)
}

func TestDispatch_SoloSucursalOrigen(t *testing.T) {
	uc, _, _ := newUseCase(t)
	tr := crearTraslado(t, uc, 50)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)

	_, err = uc.Dispatch(context.Background(), cashierAt("b2"), tr.ID, dto.DispatchTransferRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReceive_FaltanteSeReportaNoSeCorrige(t *testing.T) {
	uc, repo, ledger := newUseCase(t)
	tr := crearTraslado(t, uc, 50)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)
	_, err = uc.Dispatch(context.Background(), cashierAt("b1"), tr.ID, dto.DispatchTransferRequest{})
	require.NoError(t, err)

	// Se despacharon 50, llegan 40: 10 de faltante.
	done, disc, err := uc.Receive(context.Background(), cashierAt("b2"), tr.ID, dto.ReceiveTransferRequest{
		Items: []dto.ReceiveItemRequest{{ProductID: "prod-1", BatchID: "batch-1", ReceivedQty: 40}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusReceived, done.Status)

	require.Len(t, disc, 1)
	assert.Equal(t, 50, disc[0].DispatchedQty)
	assert.Equal(t, 40, disc[0].ReceivedQty)
	assert.Equal(t, 10, disc[0].Shortfall)

	// Destino recibe exactamente lo contado, no lo despachado.
	require.Len(t, ledger.increases, 1)
	assert.Equal(t, "b2", ledger.increases[0].BranchID)
	assert.Equal(t, 40, ledger.increases[0].Quantity)

	// El documento conserva ambas cantidades para auditoría.
	stored, err := repo.GetByID(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Items[0].DispatchedQty)
	assert.Equal(t, 40, stored.Items[0].ReceivedQty)
}

func TestReceive_MasDeLoDespachadoSeRechaza(t *testing.T) {
	uc, _, _ := newUseCase(t)
	tr := crearTraslado(t, uc, 50)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)
	_, err = uc.Dispatch(context.Background(), cashierAt("b1"), tr.ID, dto.DispatchTransferRequest{
		Items: []dto.DispatchItemRequest{{ProductID: "prod-1", BatchID: "batch-1", DispatchedQty: 30}},
	})
	require.NoError(t, err)

	_, _, err = uc.Receive(context.Background(), cashierAt("b2"), tr.ID, dto.ReceiveTransferRequest{
		Items: []dto.ReceiveItemRequest{{ProductID: "prod-1", BatchID: "batch-1", ReceivedQty: 31}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReceive_FallaRemotaDejaElTrasladoEnDespachado(t *testing.T) {
	uc, repo, ledger := newUseCase(t)
	tr := crearTraslado(t, uc, 20)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)
	_, err = uc.Dispatch(context.Background(), cashierAt("b1"), tr.ID, dto.DispatchTransferRequest{})
	require.NoError(t, err)

	ledger.failNext = true
	_, _, err = uc.Receive(context.Background(), cashierAt("b2"), tr.ID, dto.ReceiveTransferRequest{})
	require.ErrorIs(t, err, domain.ErrRemoteFailure)

	stored, err := repo.GetByID(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusDispatched, stored.Status)
}

func TestReceive_PorDefectoRecibeCompleto(t *testing.T) {
	uc, _, ledger := newUseCase(t)
	tr := crearTraslado(t, uc, 15)
	_, err := uc.Approve(managerAt("b2"), tr.ID)
	require.NoError(t, err)
	_, err = uc.Dispatch(context.Background(), cashierAt("b1"), tr.ID, dto.DispatchTransferRequest{})
	require.NoError(t, err)

	_, disc, err := uc.Receive(context.Background(), cashierAt("b2"), tr.ID, dto.ReceiveTransferRequest{})
	require.NoError(t, err)
	assert.Empty(t, disc)
	require.Len(t, ledger.increases, 1)
	assert.Equal(t, 15, ledger.increases[0].Quantity)
}
