package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los handlers HTTP los traducen a códigos y mensajes accionables;
// los workflows nunca los convierten en coerciones silenciosas de estado.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrInvalidStateTransition = errors.New("transición de estado no permitida")
	ErrIncompleteItemData     = errors.New("ítems con datos incompletos")
	ErrRemoteFailure          = errors.New("fallo en llamada remota")
	ErrAuthorizationFailed    = errors.New("autorización de supervisor rechazada")
	ErrEmptyCart              = errors.New("el carrito está vacío")
)
