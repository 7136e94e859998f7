// Package scan implementa el ciclo escaneo→carrito: un acumulador de teclas
// reconstruye el código de barras que el lector "teclea", y una compuerta de
// seguridad detiene los productos con alertas bloqueantes antes de que entren
// al carrito.
package scan

import (
	"sync"
	"time"
)

// KeyEvent tecla cruda reportada por la terminal.
type KeyEvent struct {
	Key          string    // "Enter" o un carácter imprimible
	InputFocused bool      // true si un campo de texto tiene el foco
	At           time.Time // momento de la tecla; cero = ahora
}

// Accumulator junta las teclas de un lector de códigos en modo teclado.
// Reglas: con un campo de texto enfocado las teclas son del operador y se
// ignoran; Enter descarga el buffer como código solo si superó la longitud
// mínima (los Enter sueltos de la UI no disparan búsquedas); una pausa larga
// entre teclas indica tipeo humano y reinicia el buffer.
type Accumulator struct {
	mu      sync.Mutex
	buf     []rune
	lastKey time.Time
	minLen  int
	maxGap  time.Duration
}

// NewAccumulator construye un acumulador. minLen es la longitud mínima del
// código (por debajo, el Enter solo limpia el buffer); maxGap la pausa máxima
// entre teclas antes de descartar lo acumulado (0 desactiva la heurística).
func NewAccumulator(minLen int, maxGap time.Duration) *Accumulator {
	if minLen <= 0 {
		minLen = 3
	}
	return &Accumulator{minLen: minLen, maxGap: maxGap}
}

// Push procesa una tecla. Devuelve el código completo y true cuando un Enter
// descarga un buffer válido; en cualquier otro caso devuelve ("", false).
func (a *Accumulator) Push(ev KeyEvent) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ev.InputFocused {
		return "", false
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	if a.maxGap > 0 && len(a.buf) > 0 && at.Sub(a.lastKey) > a.maxGap {
		a.buf = a.buf[:0]
	}
	a.lastKey = at

	if ev.Key == "Enter" {
		code := string(a.buf)
		a.buf = a.buf[:0]
		if len(code) < a.minLen {
			return "", false
		}
		return code, true
	}

	// Solo caracteres imprimibles sueltos; Shift, Tab y demás se ignoran.
	r := []rune(ev.Key)
	if len(r) != 1 {
		return "", false
	}
	a.buf = append(a.buf, r[0])
	return "", false
}

// Clear descarta lo acumulado.
func (a *Accumulator) Clear() {
	a.mu.Lock()
	a.buf = a.buf[:0]
	a.mu.Unlock()
}

// Len largo actual del buffer.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}
