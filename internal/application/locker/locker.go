// Package locker serializa comandos por entidad: dos operaciones que mutan el
// mismo carrito, GRN o traslado nunca se intercalan; se encolan en orden de
// llegada y cada una se procesa completa, incluida su llamada remota.
package locker

import "sync"

// KeyedMutex un mutex por clave (id de terminal o de documento).
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New construye el registro de locks.
func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock toma el lock de la clave (lo crea si no existe) y devuelve el unlock.
//
//	defer locks.Lock(id)()
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
