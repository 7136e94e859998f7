package receiving

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlan/pharmacy-pos/internal/application/dto"
	"github.com/medlan/pharmacy-pos/internal/application/events"
	"github.com/medlan/pharmacy-pos/internal/application/ports"
	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

type memGRNs struct {
	byID map[string]*entity.GRN
}

func newMemGRNs() *memGRNs { return &memGRNs{byID: make(map[string]*entity.GRN)} }

func (m *memGRNs) Create(g *entity.GRN) error {
	cp := *g
	m.byID[g.ID] = &cp
	return nil
}

func (m *memGRNs) Update(g *entity.GRN) error {
	cp := *g
	m.byID[g.ID] = &cp
	return nil
}

func (m *memGRNs) GetByID(id string) (*entity.GRN, error) {
	g, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memGRNs) ListByBranch(branchID string, _, _ int) ([]*entity.GRN, error) {
	var out []*entity.GRN
	for _, g := range m.byID {
		if g.BranchID == branchID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGRNs) Count() (int64, error) { return int64(len(m.byID)), nil }

// recordingLedger registra cada instrucción y puede fallar a partir de la n-ésima.
type recordingLedger struct {
	increases []ports.StockInstruction
	failAfter int // -1 = nunca falla
}

func (l *recordingLedger) IncreaseStock(_ context.Context, in ports.StockInstruction) error {
	if l.failAfter >= 0 && len(l.increases) >= l.failAfter {
		return domain.ErrRemoteFailure
	}
	l.increases = append(l.increases, in)
	return nil
}

func (l *recordingLedger) DecreaseStock(context.Context, ports.StockInstruction) error { return nil }

func (l *recordingLedger) CommitSale(context.Context, *entity.Sale) (string, error) {
	return "", domain.ErrRemoteFailure
}

func newGRNUseCase(t *testing.T) (*GRNUseCase, *memGRNs, *recordingLedger) {
	t.Helper()
	repo := newMemGRNs()
	ledger := &recordingLedger{failAfter: -1}
	uc := NewGRNUseCase(repo, ledger, events.NewBus(), zerolog.Nop())
	return uc, repo, ledger
}

func manager() domain.Actor {
	return domain.Actor{UserID: "u-mgr", BranchID: "b1", Role: "manager", Caps: domain.CapabilitiesForRole("manager")}
}

func cashier() domain.Actor {
	return domain.Actor{UserID: "u-caj", BranchID: "b1", Role: "cashier", Caps: domain.CapabilitiesForRole("cashier")}
}

func fechas() (*time.Time, *time.Time) {
	mfg := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC)
	return &mfg, &exp
}

func itemCompleto() dto.GRNItemRequest {
	mfg, exp := fechas()
	return dto.GRNItemRequest{
		ProductID:         "prod-1",
		BatchNumber:       "L-2026-01",
		Quantity:          40,
		CostPrice:         decimal.RequireFromString("55.50"),
		SellingPrice:      decimal.RequireFromString("80"),
		MRP:               decimal.RequireFromString("85"),
		ManufacturingDate: mfg,
		ExpiryDate:        exp,
	}
}

func crearGRN(t *testing.T, uc *GRNUseCase, items ...dto.GRNItemRequest) *entity.GRN {
	t.Helper()
	grn, err := uc.Create(manager(), dto.CreateGRNRequest{
		SupplierID: "sup-1",
		BranchID:   "b1",
		Items:      items,
	})
	require.NoError(t, err)
	return grn
}

func TestCreate_NaceEnBorradorConConsecutivo(t *testing.T) {
	uc, _, _ := newGRNUseCase(t)

	grn := crearGRN(t, uc, itemCompleto())
	assert.Equal(t, entity.GRNStatusDraft, grn.Status)
	assert.Regexp(t, `^GRN-\d{4}-00001$`, grn.Number)

	segundo := crearGRN(t, uc, itemCompleto())
	assert.Regexp(t, `^GRN-\d{4}-00002$`, segundo.Number)
}

func TestCreate_SinItemsSeRechaza(t *testing.T) {
	uc, _, _ := newGRNUseCase(t)

	_, err := uc.Create(manager(), dto.CreateGRNRequest{SupplierID: "sup-1", BranchID: "b1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerify_DesdeBorradorEsInvalido(t *testing.T) {
	uc, _, _ := newGRNUseCase(t)
	grn := crearGRN(t, uc, itemCompleto())

	_, err := uc.Verify(manager(), grn.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestVerify_SinCapacidadSeRechaza(t *testing.T) {
	uc, _, _ := newGRNUseCase(t)
	grn := crearGRN(t, uc, itemCompleto())
	_, err := uc.Submit(cashier(), grn.ID)
	require.NoError(t, err)

	_, err = uc.Verify(cashier(), grn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestComplete_AplicaStockPorItemConIdempotencia(t *testing.T) {
	uc, _, ledger := newGRNUseCase(t)
	otro := itemCompleto()
	otro.ProductID = "prod-2"
	otro.BatchNumber = "L-2026-02"
	grn := crearGRN(t, uc, itemCompleto(), otro)

	_, err := uc.Submit(manager(), grn.ID)
	require.NoError(t, err)
	_, err = uc.Verify(manager(), grn.ID)
	require.NoError(t, err)
	done, err := uc.Complete(context.Background(), manager(), grn.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.GRNStatusCompleted, done.Status)
	require.Len(t, ledger.increases, 2)
	assert.Equal(t, "grn:"+grn.ID+":"+done.Items[0].ID, ledger.increases[0].IdempotencyKey)
	assert.Equal(t, done.Number, ledger.increases[0].Reference)

	// Reintentar el cierre de un GRN ya COMPLETED se rechaza sin tocar stock.
	_, err = uc.Complete(context.Background(), manager(), grn.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Len(t, ledger.increases, 2)
}

func TestComplete_ItemsIncompletosNoTocanStock(t *testing.T) {
	uc, _, ledger := newGRNUseCase(t)
	incompleto := itemCompleto()
	incompleto.BatchNumber = ""
	incompleto.ExpiryDate = nil
	grn := crearGRN(t, uc, incompleto)

	_, err := uc.Submit(manager(), grn.ID)
	require.NoError(t, err)
	_, err = uc.Verify(manager(), grn.ID)
	require.NoError(t, err)

	_, err = uc.Complete(context.Background(), manager(), grn.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteItemData)

	var incErr *IncompleteItemsError
	require.True(t, errors.As(err, &incErr))
	require.Len(t, incErr.Issues, 1)
	assert.Contains(t, incErr.Issues[0].MissingFields, "batch_number")
	assert.Contains(t, incErr.Issues[0].MissingFields, "expiry_date")
	assert.Empty(t, ledger.increases)
}

func TestComplete_FallaRemotaDejaElGRNEnVerificado(t *testing.T) {
	uc, repo, ledger := newGRNUseCase(t)
	otro := itemCompleto()
	otro.ProductID = "prod-2"
	grn := crearGRN(t, uc, itemCompleto(), otro)

	_, err := uc.Submit(manager(), grn.ID)
	require.NoError(t, err)
	_, err = uc.Verify(manager(), grn.ID)
	require.NoError(t, err)

	// El segundo aumento falla: el documento no debe quedar COMPLETED.
	ledger.failAfter = 1
	_, err = uc.Complete(context.Background(), manager(), grn.ID)
	require.ErrorIs(t, err, domain.ErrRemoteFailure)

	stored, err := repo.GetByID(grn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.GRNStatusVerified, stored.Status)
}

func TestCancel_ExigeMotivoYSoloDesdeEstadosEditables(t *testing.T) {
	uc, _, _ := newGRNUseCase(t)
	grn := crearGRN(t, uc, itemCompleto())

	_, err := uc.Cancel(manager(), grn.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cancelled, err := uc.Cancel(manager(), grn.ID, "pedido duplicado")
	require.NoError(t, err)
	assert.Equal(t, entity.GRNStatusCancelled, cancelled.Status)
	assert.Equal(t, "pedido duplicado", cancelled.Remarks)

	// Terminal: ninguna transición posterior es válida.
	_, err = uc.Submit(manager(), grn.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestUpdate_CongeladoDesdeVerificado(t *testing.T) {
	uc, _, _ := newGRNUseCase(t)
	grn := crearGRN(t, uc, itemCompleto())
	_, err := uc.Submit(manager(), grn.ID)
	require.NoError(t, err)
	_, err = uc.Verify(manager(), grn.ID)
	require.NoError(t, err)

	_, err = uc.Update(manager(), grn.ID, dto.CreateGRNRequest{Remarks: "tarde"})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}
