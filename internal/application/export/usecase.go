// Package export genera reportes descargables de capacitaciones.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ContentTypeXLSX tipo MIME del libro generado.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TrainingRow fila del reporte.
type TrainingRow struct {
	TrainingCode                 string
	TrainingEffectivenessPercent float64
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
	Owner                        string
}

// RowSource recorre las filas del reporte; yield se llama una vez por fila.
type RowSource func(yield func(TrainingRow) error) error

// SheetWriter puerto de salida que escribe el libro en w fila a fila (infrastructure/xlsx).
type SheetWriter interface {
	WriteTrainings(ctx context.Context, w io.Writer, rows RowSource) error
}

// TrainingExportUseCase exporta capacitaciones a hoja de cálculo sin cargarlas todas en memoria.
type TrainingExportUseCase struct {
	repo   repository.TrainingRepository
	writer SheetWriter
}

// NewTrainingExportUseCase construye el caso de uso.
func NewTrainingExportUseCase(repo repository.TrainingRepository, writer SheetWriter) *TrainingExportUseCase {
	return &TrainingExportUseCase{repo: repo, writer: writer}
}

// ExportMine escribe las capacitaciones del caller y devuelve el nombre de archivo sugerido.
func (uc *TrainingExportUseCase) ExportMine(ctx context.Context, caller entity.Caller, w io.Writer) (string, error) {
	if err := uc.export(ctx, caller.ID, w); err != nil {
		return "", err
	}
	return fmt.Sprintf("training-report-%s.xlsx", caller.ID), nil
}

// ExportAll exporta todas las capacitaciones (o las de ownerID). Solo admin.
func (uc *TrainingExportUseCase) ExportAll(ctx context.Context, caller entity.Caller, ownerID string, w io.Writer) (string, error) {
	if !caller.IsAdmin() {
		return "", domain.ErrForbidden
	}
	ownerID = strings.TrimSpace(ownerID)
	if err := uc.export(ctx, ownerID, w); err != nil {
		return "", err
	}
	if ownerID != "" {
		return fmt.Sprintf("training-report-%s.xlsx", ownerID), nil
	}
	return "training-report-all.xlsx", nil
}

func (uc *TrainingExportUseCase) export(ctx context.Context, ownerID string, w io.Writer) error {
	return uc.writer.WriteTrainings(ctx, w, func(yield func(TrainingRow) error) error {
		return uc.repo.Each(ctx, ownerID, func(t *entity.Training) error {
			return yield(TrainingRow{
				TrainingCode:                 t.TrainingCode,
				TrainingEffectivenessPercent: t.TrainingEffectivenessPercent,
				CreatedAt:                    t.CreatedAt,
				UpdatedAt:                    t.UpdatedAt,
				Owner:                        t.OwnerID,
			})
		})
	})
}
