package inventory

import (
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// BalancePoint un punto de la línea de tiempo de saldos reconstruida desde el ledger.
type BalancePoint struct {
	EntryID      string
	Kind         entity.LedgerKind
	Quantity     int64
	Delta        int64 // variación con signo respecto al punto anterior
	BalanceAfter int64
	CreatedAt    time.Time
	Consistent   bool // el saldo es coherente con el anterior y la cantidad registrada
}

// Audit resultado de reconstruir los saldos de un producto.
type Audit struct {
	ProductID     string
	CurrentStock  int64
	LatestBalance int64
	Points        []BalancePoint
	Broken        []string // IDs de entradas cuyo saldo no encadena con el anterior
	Consistent    bool     // cadena íntegra y último balanceAfter == currentStock
}

// Replay reconstruye la línea de tiempo de saldos. entries debe venir en orden de creación ascendente.
// Sin entradas, el stock actual es la línea base previa al ledger y la auditoría es consistente.
func Replay(p *entity.Product, entries []entity.LedgerEntry) Audit {
	audit := Audit{
		ProductID:     p.ID,
		CurrentStock:  p.CurrentStock,
		LatestBalance: p.CurrentStock,
		Points:        make([]BalancePoint, 0, len(entries)),
	}
	for i, e := range entries {
		pt := BalancePoint{
			EntryID:      e.ID,
			Kind:         e.Kind,
			Quantity:     e.Quantity,
			BalanceAfter: e.BalanceAfter,
			CreatedAt:    e.CreatedAt,
			Consistent:   e.BalanceAfter >= 0 && e.Quantity >= 0,
		}
		if i == 0 {
			pt.Delta = firstDelta(e)
		} else {
			prev := entries[i-1].BalanceAfter
			pt.Delta = e.BalanceAfter - prev
			pt.Consistent = pt.Consistent && chains(e, prev)
		}
		if !pt.Consistent {
			audit.Broken = append(audit.Broken, e.ID)
		}
		audit.Points = append(audit.Points, pt)
	}
	if n := len(entries); n > 0 {
		audit.LatestBalance = entries[n-1].BalanceAfter
	}
	audit.Consistent = len(audit.Broken) == 0 && audit.LatestBalance == audit.CurrentStock
	return audit
}

// firstDelta para la primera entrada no se conoce el saldo previo salvo por su tipo.
func firstDelta(e entity.LedgerEntry) int64 {
	switch e.Kind {
	case entity.KindProcure:
		return e.Quantity
	case entity.KindDistribute:
		return -e.Quantity
	}
	return 0
}

func chains(e entity.LedgerEntry, prev int64) bool {
	switch e.Kind {
	case entity.KindProcure:
		return e.BalanceAfter == prev+e.Quantity
	case entity.KindDistribute:
		return e.BalanceAfter == prev-e.Quantity
	case entity.KindAdjustment:
		d := e.BalanceAfter - prev
		if d < 0 {
			d = -d
		}
		return d == e.Quantity
	}
	return false
}
