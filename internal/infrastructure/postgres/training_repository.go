package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.TrainingRepository = (*TrainingRepo)(nil)

const trainingColumns = `id, training_code, effectiveness_percent, owner_id, created_at, updated_at`

// TrainingRepo registros de capacitación y su historial (tabla training_versions).
type TrainingRepo struct {
	q Querier
}

// NewTrainingRepository construye el adaptador de capacitaciones.
func NewTrainingRepository(q Querier) *TrainingRepo {
	return &TrainingRepo{q: q}
}

// Create persiste un registro nuevo (sin versiones).
func (r *TrainingRepo) Create(ctx context.Context, t *entity.Training) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO trainings (`+trainingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.TrainingCode, t.TrainingEffectivenessPercent, t.OwnerID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert training: %w", err)
	}
	return nil
}

// GetByID registro con su historial completo. (nil, nil) si no existe.
func (r *TrainingRepo) GetByID(ctx context.Context, id string) (*entity.Training, error) {
	if !validUUID(id) {
		return nil, nil
	}
	t, err := scanTraining(r.q.QueryRow(ctx, `SELECT `+trainingColumns+` FROM trainings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training: %w", err)
	}
	if err := r.loadVersions(ctx, []*entity.Training{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// Update guarda el estado nuevo y, en la misma sentencia, agrega la última versión de t.Versions.
func (r *TrainingRepo) Update(ctx context.Context, t *entity.Training) error {
	if !validUUID(t.ID) {
		return domain.ErrNotFound
	}
	if len(t.Versions) == 0 {
		cmd, err := r.q.Exec(ctx, `
			UPDATE trainings SET training_code = $2, effectiveness_percent = $3, updated_at = $4
			WHERE id = $1`,
			t.ID, t.TrainingCode, t.TrainingEffectivenessPercent, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update training: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	}
	v := t.Versions[len(t.Versions)-1]
	var updated string
	err := r.q.QueryRow(ctx, `
		WITH upd AS (
			UPDATE trainings SET training_code = $2, effectiveness_percent = $3, updated_at = $4
			WHERE id = $1
			RETURNING id
		)
		INSERT INTO training_versions (training_id, training_code, effectiveness_percent, updated_by, updated_at)
		SELECT id, $5, $6, $7, $8 FROM upd
		RETURNING training_id::text`,
		t.ID, t.TrainingCode, t.TrainingEffectivenessPercent, t.UpdatedAt,
		v.TrainingCode, v.TrainingEffectivenessPercent, v.UpdatedBy, v.UpdatedAt,
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update training: %w", err)
	}
	return nil
}

// Delete elimina el registro; las versiones caen por cascada.
func (r *TrainingRepo) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM trainings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete training: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner registros de un dueño (o de todos con ownerID vacío) con sus versiones.
func (r *TrainingRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Training, error) {
	list := make([]*entity.Training, 0)
	err := r.Each(ctx, ownerID, func(t *entity.Training) error {
		list = append(list, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.loadVersions(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Each recorre los registros fila a fila sin historial. fn se invoca mientras el cursor está abierto.
func (r *TrainingRepo) Each(ctx context.Context, ownerID string, fn func(*entity.Training) error) error {
	if ownerID != "" && !validUUID(ownerID) {
		return nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+trainingColumns+`
		FROM trainings
		WHERE ($1 = '' OR owner_id::text = $1)
		ORDER BY owner_id, updated_at DESC`, ownerID)
	if err != nil {
		return fmt.Errorf("list trainings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return fmt.Errorf("scan training: %w", err)
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *TrainingRepo) loadVersions(ctx context.Context, list []*entity.Training) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Training, len(list))
	ids := make([]string, 0, len(list))
	for _, t := range list {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT training_id::text, training_code, effectiveness_percent, updated_by, updated_at
		FROM training_versions
		WHERE training_id::text = ANY($1)
		ORDER BY training_id, seq`, ids)
	if err != nil {
		return fmt.Errorf("list training versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id string
			v  entity.TrainingVersion
		)
		if err := rows.Scan(&id, &v.TrainingCode, &v.TrainingEffectivenessPercent, &v.UpdatedBy, &v.UpdatedAt); err != nil {
			return fmt.Errorf("scan training version: %w", err)
		}
		if t, ok := byID[id]; ok {
			t.Versions = append(t.Versions, v)
		}
	}
	return rows.Err()
}

func scanTraining(row pgx.Row) (*entity.Training, error) {
	var t entity.Training
	if err := row.Scan(&t.ID, &t.TrainingCode, &t.TrainingEffectivenessPercent, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
