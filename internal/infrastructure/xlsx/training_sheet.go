// Package xlsx escribe reportes en formato Excel con el stream writer de excelize.
package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/export"
)

var _ export.SheetWriter = (*TrainingSheetWriter)(nil)

// SheetName nombre de la hoja del reporte de capacitaciones.
const SheetName = "Trainings"

var trainingHeaders = []any{
	"Training Code", "Training Effectiveness (%)", "Created At", "Updated At", "Owner",
}

// TrainingSheetWriter implementa export.SheetWriter. Cada llamada crea un libro nuevo.
type TrainingSheetWriter struct{}

// NewTrainingSheetWriter construye el writer.
func NewTrainingSheetWriter() *TrainingSheetWriter { return &TrainingSheetWriter{} }

// WriteTrainings escribe encabezado y filas en streaming y vuelca el libro en w.
func (TrainingSheetWriter) WriteTrainings(ctx context.Context, w io.Writer, rows export.RowSource) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00467F"}},
	})
	if err != nil {
		return fmt.Errorf("xlsx: estilo encabezado: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return fmt.Errorf("xlsx: estilo fecha: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, 5, 22); err != nil {
		return fmt.Errorf("xlsx: ancho de columnas: %w", err)
	}

	header := make([]any, len(trainingHeaders))
	for i, h := range trainingHeaders {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("xlsx: encabezado: %w", err)
	}

	next := 2
	err = rows(func(r export.TrainingRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		next++
		return sw.SetRow(cell, []any{
			r.TrainingCode,
			r.TrainingEffectivenessPercent,
			excelize.Cell{StyleID: dateStyle, Value: r.CreatedAt.UTC()},
			excelize.Cell{StyleID: dateStyle, Value: r.UpdatedAt.UTC()},
			r.Owner,
		})
	})
	if err != nil {
		return fmt.Errorf("xlsx: filas: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return nil
}
