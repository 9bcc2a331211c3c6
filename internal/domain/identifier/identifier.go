// Package identifier define el formato de los identificadores legibles de producto
// (PRD-<CATEGORÍA>-<AÑO>-<secuencia de 6 dígitos>) y la clave de su contador.
package identifier

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// NormalizeCategory recorta y pasa a mayúsculas la categoría; vacía = GEN.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return entity.DefaultCategory
	}
	return cases.Upper(language.Und).String(c)
}

// NormalizeItemID normaliza un identificador explícito enviado por el cliente.
func NormalizeItemID(itemID string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(itemID))
}

// CounterKey clave del contador durable por (categoría, año).
func CounterKey(category string, year int) string {
	return fmt.Sprintf("product:%s:%d", NormalizeCategory(category), year)
}

// Format construye el identificador a partir de la secuencia asignada por el contador.
func Format(category string, year int, seq int64) string {
	return fmt.Sprintf("PRD-%s-%d-%06d", NormalizeCategory(category), year, seq)
}
