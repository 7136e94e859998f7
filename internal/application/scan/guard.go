package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// Resolver puerto hacia el endpoint remoto que resuelve un código escaneado en
// producto + alertas según el contexto (POS, recepción, toma de inventario).
type Resolver interface {
	ResolveScan(ctx context.Context, scanData, scanContext, branchID string) (*entity.ScanResult, error)
}

// ManagerAuthorizer puerto de autorización de supervisor para escaneos bloqueados.
type ManagerAuthorizer interface {
	AuthorizeOverride(ctx context.Context, managerID, pin string) (bool, error)
}

// ProductConsumer destino de un producto que superó (o le autorizaron saltar)
// la compuerta. En el POS es el carrito de la terminal.
type ProductConsumer interface {
	AcceptScannedProduct(ctx context.Context, terminalID string, p entity.ScannedProduct) error
}

// Estados del resultado de un escaneo para la terminal.
const (
	OutcomeAdded    = "ADDED"    // el producto entró al carrito
	OutcomeBlocked  = "BLOCKED"  // alerta bloqueante; la terminal debe decidir
	OutcomeResolved = "RESOLVED" // resuelto sin consumidor (contextos fuera del POS)
	OutcomeStale    = "STALE"    // un escaneo más nuevo lo dejó obsoleto
	OutcomeFailed   = "FAILED"   // el código no corresponde a ningún producto
)

// Outcome respuesta de la compuerta a la terminal.
type Outcome struct {
	Status string             `json:"status"`
	Result *entity.ScanResult `json:"result,omitempty"`
	Alert  *entity.ScanAlert  `json:"alert,omitempty"`
}

// PendingDecision escaneo bloqueado a la espera de cancelación u override.
// Vive solo en memoria; nunca se persiste.
type PendingDecision struct {
	ScanData string
	Product  entity.ScannedProduct
	Alert    entity.ScanAlert
	At       time.Time
}

// Guard compuerta de seguridad del escaneo. Una terminal tiene a lo sumo una
// decisión pendiente; mientras exista, los escaneos nuevos se rechazan para que
// el operador resuelva primero el bloqueo.
type Guard struct {
	resolver   Resolver
	authorizer ManagerAuthorizer
	consumer   ProductConsumer
	log        zerolog.Logger

	minLen int
	maxGap time.Duration

	mu      sync.Mutex
	accs    map[string]*Accumulator
	gens    map[string]uint64
	pending map[string]*PendingDecision
}

// NewGuard construye la compuerta.
func NewGuard(resolver Resolver, authorizer ManagerAuthorizer, consumer ProductConsumer, minLen int, maxGap time.Duration, log zerolog.Logger) *Guard {
	return &Guard{
		resolver:   resolver,
		authorizer: authorizer,
		consumer:   consumer,
		log:        log.With().Str("component", "scan").Logger(),
		minLen:     minLen,
		maxGap:     maxGap,
		accs:       make(map[string]*Accumulator),
		gens:       make(map[string]uint64),
		pending:    make(map[string]*PendingDecision),
	}
}

func (g *Guard) accumulator(terminalID string) *Accumulator {
	g.mu.Lock()
	defer g.mu.Unlock()
	acc, ok := g.accs[terminalID]
	if !ok {
		acc = NewAccumulator(g.minLen, g.maxGap)
		g.accs[terminalID] = acc
	}
	return acc
}

// HandleKey alimenta el acumulador de la terminal. Cuando un Enter descarga un
// código válido, lo procesa como escaneo en contexto POS. Devuelve nil si la
// tecla no completó ningún código.
func (g *Guard) HandleKey(ctx context.Context, terminalID, branchID string, ev KeyEvent) (*Outcome, error) {
	code, ok := g.accumulator(terminalID).Push(ev)
	if !ok {
		return nil, nil
	}
	return g.HandleScan(ctx, terminalID, branchID, code, entity.ScanContextPOS)
}

// HandleScan resuelve un código contra el endpoint remoto y decide su destino.
// Un nuevo escaneo de la misma terminal deja obsoleto al anterior: si la
// resolución vuelve cuando ya arrancó otro escaneo, el resultado se descarta
// (el operador escanea más rápido de lo que responde la red).
func (g *Guard) HandleScan(ctx context.Context, terminalID, branchID, scanData, scanContext string) (*Outcome, error) {
	if scanContext == "" {
		scanContext = entity.ScanContextPOS
	}

	g.mu.Lock()
	if _, busy := g.pending[terminalID]; busy && scanContext == entity.ScanContextPOS {
		g.mu.Unlock()
		return nil, fmt.Errorf("la terminal tiene un escaneo bloqueado sin resolver: %w", domain.ErrConflict)
	}
	g.gens[terminalID]++
	gen := g.gens[terminalID]
	g.mu.Unlock()

	result, err := g.resolver.ResolveScan(ctx, scanData, scanContext, branchID)
	if err != nil {
		return nil, fmt.Errorf("resolver escaneo %q: %w", scanData, err)
	}

	g.mu.Lock()
	stale := g.gens[terminalID] != gen
	g.mu.Unlock()
	if stale {
		g.log.Debug().Str("terminal", terminalID).Str("scan", scanData).Msg("resolución obsoleta descartada")
		return &Outcome{Status: OutcomeStale}, nil
	}

	if !result.Success {
		return &Outcome{Status: OutcomeFailed, Result: result}, nil
	}

	// La compuerta solo aplica en el POS; en recepción o toma de inventario las
	// alertas son informativas.
	if scanContext == entity.ScanContextPOS {
		if alert := result.BlockingAlert(); alert != nil {
			g.mu.Lock()
			g.pending[terminalID] = &PendingDecision{
				ScanData: scanData,
				Product:  result.Product,
				Alert:    *alert,
				At:       time.Now(),
			}
			g.mu.Unlock()
			g.log.Warn().Str("terminal", terminalID).Str("product", result.Product.ProductID).
				Str("alert", alert.AlertType).Msg("escaneo bloqueado a la espera de decisión")
			return &Outcome{Status: OutcomeBlocked, Result: result, Alert: alert}, nil
		}

		if err := g.consumer.AcceptScannedProduct(ctx, terminalID, result.Product); err != nil {
			return nil, err
		}
		return &Outcome{Status: OutcomeAdded, Result: result}, nil
	}

	return &Outcome{Status: OutcomeResolved, Result: result}, nil
}

// Pending devuelve la decisión pendiente de la terminal, o nil.
func (g *Guard) Pending(terminalID string) *PendingDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending[terminalID]
}

// Cancel descarta el escaneo bloqueado: el producto no entra al carrito y la
// terminal queda libre para escanear.
func (g *Guard) Cancel(terminalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[terminalID]; !ok {
		return fmt.Errorf("no hay escaneo bloqueado en la terminal: %w", domain.ErrNotFound)
	}
	delete(g.pending, terminalID)
	return nil
}

// Override pide autorización de supervisor para el escaneo bloqueado. Con
// autorización positiva el producto entra al carrito y el bloqueo se libera;
// una autorización rechazada deja la decisión pendiente tal como estaba.
func (g *Guard) Override(ctx context.Context, terminalID, managerID, pin string) (*Outcome, error) {
	g.mu.Lock()
	dec, ok := g.pending[terminalID]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no hay escaneo bloqueado en la terminal: %w", domain.ErrNotFound)
	}

	authorized, err := g.authorizer.AuthorizeOverride(ctx, managerID, pin)
	if err != nil {
		return nil, fmt.Errorf("autorizar override: %w", err)
	}
	if !authorized {
		g.log.Warn().Str("terminal", terminalID).Str("manager", managerID).Msg("override rechazado")
		return nil, domain.ErrAuthorizationFailed
	}

	if err := g.consumer.AcceptScannedProduct(ctx, terminalID, dec.Product); err != nil {
		return nil, err
	}

	g.mu.Lock()
	delete(g.pending, terminalID)
	g.mu.Unlock()

	g.log.Info().Str("terminal", terminalID).Str("manager", managerID).
		Str("product", dec.Product.ProductID).Str("alert", dec.Alert.AlertType).
		Msg("override autorizado, producto agregado")
	return &Outcome{Status: OutcomeAdded, Result: &entity.ScanResult{
		Success:  true,
		ScanData: dec.ScanData,
		Product:  dec.Product,
	}}, nil
}
