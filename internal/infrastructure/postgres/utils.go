package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code := pgCode(err); code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. stock negativo.
func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// isRetryable conflictos de concurrencia que se resuelven repitiendo la transacción.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// classify traduce errores de postgres a la taxonomía de dominio conservando el original.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isRetryable(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
	case isCheckViolation(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInsufficientStock, err)
	}
	return err
}

// classifyTx como classify, para errores devueltos dentro de una transacción: lo que no es
// error de dominio, ni de postgres, ni cancelación es un fallo de conexión o E/S y pasa a ErrStorage.
func classifyTx(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err), pgCode(err) != "":
		return classify(op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrUserNotFound, domain.ErrEmailAlreadyExists,
		domain.ErrInvalidInput, domain.ErrConflict, domain.ErrUnauthorized,
		domain.ErrForbidden, domain.ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// validUUID las columnas id son uuid: una referencia que no lo es no puede existir.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
