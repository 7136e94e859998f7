package scan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

type fakeResolver struct {
	results map[string]*entity.ScanResult
	gate    map[string]chan struct{} // la resolución de ese código espera su canal
}

func (f *fakeResolver) ResolveScan(_ context.Context, scanData, _, _ string) (*entity.ScanResult, error) {
	if ch, ok := f.gate[scanData]; ok {
		<-ch
	}
	if r, ok := f.results[scanData]; ok {
		return r, nil
	}
	return &entity.ScanResult{Success: false, ScanData: scanData, ErrorMessage: "producto no encontrado"}, nil
}

type fakeAuthorizer struct {
	allow bool
	calls int
}

func (f *fakeAuthorizer) AuthorizeOverride(context.Context, string, string) (bool, error) {
	f.calls++
	return f.allow, nil
}

type fakeConsumer struct {
	mu       sync.Mutex
	accepted []entity.ScannedProduct
}

func (f *fakeConsumer) AcceptScannedProduct(_ context.Context, _ string, p entity.ScannedProduct) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, p)
	return nil
}

func (f *fakeConsumer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accepted)
}

func producto(id string) entity.ScannedProduct {
	return entity.ScannedProduct{
		ProductID:    id,
		Name:         "Ibuprofeno 400mg",
		Barcode:      "7700000000001",
		SellingPrice: decimal.RequireFromString("50"),
		CostPrice:    decimal.RequireFromString("30"),
	}
}

func newGuard(t *testing.T) (*Guard, *fakeResolver, *fakeAuthorizer, *fakeConsumer) {
	t.Helper()
	resolver := &fakeResolver{results: map[string]*entity.ScanResult{
		"7700000000001": {Success: true, ScanData: "7700000000001", Product: producto("prod-ok")},
		"7700000000002": {
			Success:  true,
			ScanData: "7700000000002",
			Product:  producto("prod-vencido"),
			Alerts: []entity.ScanAlert{{
				AlertType: entity.AlertExpired,
				Message:   "Lote vencido el 2026-05-01",
			}},
		},
		"7700000000003": {
			Success:  true,
			ScanData: "7700000000003",
			Product:  producto("prod-stock-bajo"),
			Alerts: []entity.ScanAlert{{
				AlertType: entity.AlertLowStock,
				Message:   "Quedan 3 unidades",
			}},
		},
	}}
	auth := &fakeAuthorizer{}
	consumer := &fakeConsumer{}
	g := NewGuard(resolver, auth, consumer, 3, 0, zerolog.Nop())
	return g, resolver, auth, consumer
}

func TestAccumulator_EnterDescargaElCodigo(t *testing.T) {
	acc := NewAccumulator(3, 0)

	for _, k := range []string{"7", "7", "0", "1"} {
		_, ok := acc.Push(KeyEvent{Key: k})
		assert.False(t, ok)
	}
	code, ok := acc.Push(KeyEvent{Key: "Enter"})
	require.True(t, ok)
	assert.Equal(t, "7701", code)
	assert.Zero(t, acc.Len())
}

func TestAccumulator_EnterCortoSoloLimpia(t *testing.T) {
	acc := NewAccumulator(3, 0)

	acc.Push(KeyEvent{Key: "a"})
	acc.Push(KeyEvent{Key: "b"})
	_, ok := acc.Push(KeyEvent{Key: "Enter"})
	assert.False(t, ok)
	assert.Zero(t, acc.Len())
}

func TestAccumulator_ConFocoEnInputSeIgnora(t *testing.T) {
	acc := NewAccumulator(3, 0)

	acc.Push(KeyEvent{Key: "1", InputFocused: true})
	acc.Push(KeyEvent{Key: "2", InputFocused: true})
	assert.Zero(t, acc.Len())
}

func TestAccumulator_TeclasNoImprimiblesSeIgnoran(t *testing.T) {
	acc := NewAccumulator(3, 0)

	acc.Push(KeyEvent{Key: "Shift"})
	acc.Push(KeyEvent{Key: "Tab"})
	assert.Zero(t, acc.Len())
}

func TestAccumulator_PausaLargaReiniciaElBuffer(t *testing.T) {
	acc := NewAccumulator(3, 50*time.Millisecond)
	base := time.Now()

	acc.Push(KeyEvent{Key: "1", At: base})
	acc.Push(KeyEvent{Key: "2", At: base.Add(10 * time.Millisecond)})
	// Pausa humana: lo tecleado antes se descarta.
	acc.Push(KeyEvent{Key: "3", At: base.Add(500 * time.Millisecond)})
	assert.Equal(t, 1, acc.Len())
}

func TestHandleKey_CodigoCompletoAgregaAlCarrito(t *testing.T) {
	g, _, _, consumer := newGuard(t)
	ctx := context.Background()

	for _, k := range []string{"7", "7", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "1"} {
		out, err := g.HandleKey(ctx, "t1", "b1", KeyEvent{Key: k})
		require.NoError(t, err)
		assert.Nil(t, out)
	}
	out, err := g.HandleKey(ctx, "t1", "b1", KeyEvent{Key: "Enter"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, OutcomeAdded, out.Status)
	assert.Equal(t, 1, consumer.count())
}

func TestHandleScan_AlertaNoBloqueanteNoDetiene(t *testing.T) {
	g, _, _, consumer := newGuard(t)

	out, err := g.HandleScan(context.Background(), "t1", "b1", "7700000000003", entity.ScanContextPOS)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, out.Status)
	assert.Equal(t, 1, consumer.count())
	assert.Nil(t, g.Pending("t1"))
}

func TestHandleScan_VencidoBloqueaYExigeDecision(t *testing.T) {
	g, _, _, consumer := newGuard(t)
	ctx := context.Background()

	out, err := g.HandleScan(ctx, "t1", "b1", "7700000000002", entity.ScanContextPOS)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, out.Status)
	require.NotNil(t, out.Alert)
	assert.Equal(t, entity.AlertExpired, out.Alert.AlertType)
	assert.Zero(t, consumer.count())
	require.NotNil(t, g.Pending("t1"))

	// Con la decisión pendiente, los escaneos nuevos del POS se rechazan.
	_, err = g.HandleScan(ctx, "t1", "b1", "7700000000001", entity.ScanContextPOS)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Cancelar libera la terminal sin tocar el carrito.
	require.NoError(t, g.Cancel("t1"))
	assert.Nil(t, g.Pending("t1"))
	assert.Zero(t, consumer.count())
}

func TestHandleScan_FueraDelPOSLasAlertasNoBloquean(t *testing.T) {
	g, _, _, consumer := newGuard(t)

	out, err := g.HandleScan(context.Background(), "t1", "b1", "7700000000002", entity.ScanContextReceiving)
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, out.Status)
	assert.Zero(t, consumer.count())
	assert.Nil(t, g.Pending("t1"))
}

func TestOverride_AutorizadoAgregaYLibera(t *testing.T) {
	g, _, auth, consumer := newGuard(t)
	auth.allow = true
	ctx := context.Background()

	_, err := g.HandleScan(ctx, "t1", "b1", "7700000000002", entity.ScanContextPOS)
	require.NoError(t, err)

	out, err := g.Override(ctx, "t1", "mgr-1", "9999")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, out.Status)
	assert.Equal(t, 1, consumer.count())
	assert.Equal(t, "prod-vencido", consumer.accepted[0].ProductID)
	assert.Nil(t, g.Pending("t1"))
}

func TestOverride_RechazadoMantieneElBloqueo(t *testing.T) {
	g, _, auth, consumer := newGuard(t)
	auth.allow = false
	ctx := context.Background()

	_, err := g.HandleScan(ctx, "t1", "b1", "7700000000002", entity.ScanContextPOS)
	require.NoError(t, err)

	_, err = g.Override(ctx, "t1", "mgr-1", "0000")
	assert.ErrorIs(t, err, domain.ErrAuthorizationFailed)
	assert.Zero(t, consumer.count())
	assert.NotNil(t, g.Pending("t1"))
}

func TestOverride_SinBloqueoPendiente(t *testing.T) {
	g, _, _, _ := newGuard(t)

	_, err := g.Override(context.Background(), "t1", "mgr-1", "9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleScan_ResolucionObsoletaSeDescarta(t *testing.T) {
	g, resolver, _, consumer := newGuard(t)
	ctx := context.Background()

	// El primer escaneo queda esperando la red; mientras tanto llega otro.
	gate := make(chan struct{})
	resolver.gate = map[string]chan struct{}{"7700000000001": gate}
	type res struct {
		out *Outcome
		err error
	}
	first := make(chan res, 1)
	go func() {
		out, err := g.HandleScan(ctx, "t1", "b1", "7700000000001", entity.ScanContextPOS)
		first <- res{out, err}
	}()

	// Espera a que el primer escaneo tome su generación.
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.gens["t1"] == 1
	}, time.Second, time.Millisecond)

	out2, err := g.HandleScan(ctx, "t1", "b1", "7700000000003", entity.ScanContextPOS)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, out2.Status)

	close(gate)
	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, OutcomeStale, r.out.Status)

	// Solo el escaneo vigente llegó al carrito.
	assert.Equal(t, 1, consumer.count())
	assert.Equal(t, "prod-stock-bajo", consumer.accepted[0].ProductID)
}

func TestHandleScan_CodigoDesconocido(t *testing.T) {
	g, _, _, consumer := newGuard(t)

	out, err := g.HandleScan(context.Background(), "t1", "b1", "0000000000000", entity.ScanContextPOS)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, out.Status)
	assert.Zero(t, consumer.count())
}
