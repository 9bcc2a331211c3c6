// Package analytics contiene las consultas de reporte sobre el ledger y el registro
// de productos. Todas leen estado confirmado, sin bloqueos y fuera de cualquier
// transacción de mutación.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const (
	dashboardLowStockLimit = 50
	dashboardRecentLimit   = 20
	dashboardDefaultDays   = 30
)

// DashboardUseCase genera el resumen de movimientos para un rango de fechas.
//
// Tres consultas en paralelo sobre ReportRepository:
//  1. SumByKind(procure) y SumByKind(distribute) → totales (si fallan, falla el dashboard)
//  2. LowStock(50)                               → degradable a lista vacía
//  3. Recent(20)                                 → degradable a lista vacía
type DashboardUseCase struct {
	reportRepo repository.ReportRepository
	cache      Cache
	ttl        time.Duration
	group      singleflight.Group
	log        *logger.Logger
	now        func() time.Time
}

// NewDashboardUseCase construye el caso de uso. cache nil o ttl <= 0 deshabilitan la cache.
func NewDashboardUseCase(reportRepo repository.ReportRepository, cache Cache, ttl time.Duration, log *logger.Logger) *DashboardUseCase {
	if cache == nil || ttl <= 0 {
		cache = NopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardUseCase{
		reportRepo: reportRepo,
		cache:      cache,
		ttl:        ttl,
		log:        log.Component("analytics"),
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetDashboard devuelve el resumen del rango pedido; sin fechas, los últimos 30 días.
func (uc *DashboardUseCase) GetDashboard(ctx context.Context, in dto.DashboardRequest) (*dto.DashboardDTO, error) {
	from, to, err := uc.dateRange(in)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("dashboard:%d:%d", from.Unix(), to.Unix())

	if raw, found, err := uc.cache.Get(ctx, key); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("cache de dashboard no disponible")
	} else if found {
		var cached dto.DashboardDTO
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	// Peticiones concurrentes del mismo rango comparten una sola ejecución de las consultas.
	v, err, _ := uc.group.Do(key, func() (interface{}, error) {
		// La ejecución es compartida: no depende de la cancelación del primer solicitante.
		ctx := context.WithoutCancel(ctx)
		out, err := uc.compute(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if !out.LowStockDegraded && !out.RecentDegraded {
			if raw, err := json.Marshal(out); err == nil {
				if err := uc.cache.Set(ctx, key, raw, uc.ttl); err != nil {
					uc.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar el dashboard en cache")
				}
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*dto.DashboardDTO)
	return &out, nil
}

func (uc *DashboardUseCase) compute(ctx context.Context, from, to time.Time) (*dto.DashboardDTO, error) {
	out := &dto.DashboardDTO{
		From:     from,
		To:       to,
		LowStock: []dto.LowStockItemDTO{},
		RecentTx: []dto.LedgerEntryResponse{},
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := uc.reportRepo.SumByKind(gctx, entity.KindProcure, from, to)
		if err != nil {
			return fmt.Errorf("dashboard: total procure: %w", err)
		}
		out.TotalProcured = total
		return nil
	})
	g.Go(func() error {
		total, err := uc.reportRepo.SumByKind(gctx, entity.KindDistribute, from, to)
		if err != nil {
			return fmt.Errorf("dashboard: total distribute: %w", err)
		}
		out.TotalDistributed = total
		return nil
	})
	g.Go(func() error {
		products, err := uc.reportRepo.LowStock(gctx, dashboardLowStockLimit)
		if err != nil {
			uc.log.Warn().Err(err).Msg("dashboard: escaneo de bajo stock falló, se devuelve vacío")
			out.LowStockDegraded = true
			return nil
		}
		for _, p := range products {
			out.LowStock = append(out.LowStock, dto.LowStockItemDTO{
				ProductID:    p.ID,
				ItemID:       p.ItemID,
				Name:         p.Name,
				CurrentStock: p.CurrentStock,
				ReorderLevel: p.ReorderLevel,
			})
		}
		return nil
	})
	g.Go(func() error {
		views, err := uc.reportRepo.Recent(gctx, dashboardRecentLimit)
		if err != nil {
			uc.log.Warn().Err(err).Msg("dashboard: actividad reciente falló, se devuelve vacía")
			out.RecentDegraded = true
			return nil
		}
		for _, v := range views {
			out.RecentTx = append(out.RecentTx, dto.NewLedgerEntryViewResponse(v))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// dateRange resuelve el rango pedido. El rango por defecto se redondea al minuto
// para que peticiones cercanas compartan la clave de cache.
func (uc *DashboardUseCase) dateRange(in dto.DashboardRequest) (time.Time, time.Time, error) {
	from, err := dto.ParseDateParam(in.From, false)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("from", "fecha inválida")
	}
	to, err := dto.ParseDateParam(in.To, true)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("to", "fecha inválida")
	}
	end := uc.now().UTC().Truncate(time.Minute).Add(time.Minute - time.Nanosecond)
	if to != nil {
		end = to.UTC()
	}
	start := end.AddDate(0, 0, -dashboardDefaultDays)
	if from != nil {
		start = from.UTC()
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.Invalid("to", "anterior a from")
	}
	return start, end, nil
}
