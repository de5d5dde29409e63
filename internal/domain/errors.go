package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto de versión del registro")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrDiscontinued      = errors.New("ítem descontinuado")
	ErrLockTimeout       = errors.New("no se obtuvo acceso exclusivo al ítem a tiempo")
)
