// Package events implementa el contrato explícito de invalidación de vistas de
// lectura: cada transición de workflow declara qué vistas deja obsoletas y las
// publica en un bus tipado. Sustituye la invalidación por tags de un query-cache.
package events

import "sync"

// ReadView vista de lectura derivada que puede quedar obsoleta tras una transición.
type ReadView string

const (
	ViewInventoryByBranch ReadView = "inventory_by_branch"
	ViewPurchaseOrders    ReadView = "purchase_orders"
	ViewTransfers         ReadView = "stock_transfers"
	ViewSales             ReadView = "sales"
	ViewGRNs              ReadView = "grns"
)

// Subscriber recibe las vistas invalidadas por una transición.
type Subscriber func(views ...ReadView)

// Bus bus de invalidación en proceso. Seguro para uso concurrente.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewBus construye un bus vacío.
func NewBus() *Bus { return &Bus{} }

// Subscribe registra un suscriptor. No hay unsubscribe: los suscriptores viven
// tanto como el proceso (vistas del read-model de la terminal).
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Invalidate notifica a todos los suscriptores de forma síncrona, en orden de registro.
func (b *Bus) Invalidate(views ...ReadView) {
	if len(views) == 0 {
		return
	}
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()
	for _, s := range subs {
		s(views...)
	}
}
