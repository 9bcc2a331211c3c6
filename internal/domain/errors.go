package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrStorage            = errors.New("almacenamiento no disponible")

	// ErrInsufficientStock es un error de validación especializado: errors.Is(err, ErrInvalidInput) es true.
	ErrInsufficientStock error = &classified{msg: "stock insuficiente", class: ErrInvalidInput}
	// ErrDuplicate es un conflicto por colisión de identificador: errors.Is(err, ErrConflict) es true.
	ErrDuplicate error = &classified{msg: "recurso duplicado", class: ErrConflict}
)

// classified es un sentinel que además pertenece a una clase más general.
type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.class }

// FieldError describe un dato de entrada inválido.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un error de validación para un campo.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
