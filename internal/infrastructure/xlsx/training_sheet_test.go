package xlsx_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/export"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/xlsx"
)

func source(rows ...export.TrainingRow) export.RowSource {
	return func(yield func(export.TrainingRow) error) error {
		for _, r := range rows {
			if err := yield(r); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestWriteTrainings_EncabezadoYFilas(t *testing.T) {
	at := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := xlsx.NewTrainingSheetWriter().WriteTrainings(context.Background(), &buf, source(
		export.TrainingRow{TrainingCode: "SEG-01", TrainingEffectivenessPercent: 87.5, CreatedAt: at, UpdatedAt: at, Owner: "u-1"},
		export.TrainingRow{TrainingCode: "SEG-02", TrainingEffectivenessPercent: 60, CreatedAt: at, UpdatedAt: at, Owner: "u-2"},
	))
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsx.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Training Code", "Training Effectiveness (%)", "Created At", "Updated At", "Owner"}, rows[0])
	assert.Equal(t, "SEG-01", rows[1][0])
	assert.Equal(t, "87.5", rows[1][1])
	assert.Equal(t, "u-2", rows[2][4])
}

func TestWriteTrainings_SinFilas(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsx.NewTrainingSheetWriter().WriteTrainings(context.Background(), &buf, source()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsx.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteTrainings_ErrorDeLaFuente(t *testing.T) {
	var buf bytes.Buffer
	err := xlsx.NewTrainingSheetWriter().WriteTrainings(context.Background(), &buf, func(func(export.TrainingRow) error) error {
		return errors.New("cursor cerrado")
	})
	assert.ErrorContains(t, err, "cursor cerrado")
	assert.Zero(t, buf.Len())
}
