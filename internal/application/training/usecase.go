// Package training gestiona los registros de capacitación por usuario con historial de versiones.
package training

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TrainingUseCase CRUD de capacitaciones. Solo el dueño o un admin acceden a un registro.
type TrainingUseCase struct {
	repo repository.TrainingRepository
	now  func() time.Time
}

// NewTrainingUseCase construye el caso de uso.
func NewTrainingUseCase(repo repository.TrainingRepository) *TrainingUseCase {
	return &TrainingUseCase{repo: repo, now: time.Now}
}

// Create registra una capacitación del caller.
func (uc *TrainingUseCase) Create(ctx context.Context, caller entity.Caller, in dto.TrainingRequest) (*dto.TrainingResponse, error) {
	if in.TrainingCode == nil || in.TrainingEffectivenessPercent == nil {
		return nil, domain.Invalid("training", "training_code y training_effectiveness_percent son requeridos")
	}
	code, err := validCode(*in.TrainingCode)
	if err != nil {
		return nil, err
	}
	if err := validPercent(*in.TrainingEffectivenessPercent); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	t := &entity.Training{
		ID:                           uuid.New().String(),
		TrainingCode:                 code,
		TrainingEffectivenessPercent: *in.TrainingEffectivenessPercent,
		OwnerID:                      caller.ID,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}
	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return toResponse(t), nil
}

// Mine capacitaciones del caller, más recientes primero.
func (uc *TrainingUseCase) Mine(ctx context.Context, caller entity.Caller) ([]dto.TrainingResponse, error) {
	return uc.list(ctx, caller.ID)
}

// ListAll listado de administración; ownerID vacío = todos.
func (uc *TrainingUseCase) ListAll(ctx context.Context, caller entity.Caller, ownerID string) ([]dto.TrainingResponse, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return uc.list(ctx, strings.TrimSpace(ownerID))
}

// Get un registro si el caller es dueño o admin.
func (uc *TrainingUseCase) Get(ctx context.Context, caller entity.Caller, id string) (*dto.TrainingResponse, error) {
	t, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toResponse(t), nil
}

// Update guarda una versión con el estado anterior y aplica los campos presentes.
func (uc *TrainingUseCase) Update(ctx context.Context, caller entity.Caller, id string, in dto.TrainingRequest) (*dto.TrainingResponse, error) {
	t, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	code := t.TrainingCode
	if in.TrainingCode != nil {
		if code, err = validCode(*in.TrainingCode); err != nil {
			return nil, err
		}
	}
	percent := t.TrainingEffectivenessPercent
	if in.TrainingEffectivenessPercent != nil {
		if err := validPercent(*in.TrainingEffectivenessPercent); err != nil {
			return nil, err
		}
		percent = *in.TrainingEffectivenessPercent
	}
	now := uc.now().UTC()
	t.Versions = append(t.Versions, entity.TrainingVersion{
		TrainingCode:                 t.TrainingCode,
		TrainingEffectivenessPercent: t.TrainingEffectivenessPercent,
		UpdatedBy:                    caller.ID,
		UpdatedAt:                    now,
	})
	t.TrainingCode = code
	t.TrainingEffectivenessPercent = percent
	t.UpdatedAt = now
	if err := uc.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return toResponse(t), nil
}

// Delete elimina el registro si el caller es dueño o admin.
func (uc *TrainingUseCase) Delete(ctx context.Context, caller entity.Caller, id string) error {
	t, err := uc.load(ctx, caller, id)
	if err != nil {
		return err
	}
	return uc.repo.Delete(ctx, t.ID)
}

func (uc *TrainingUseCase) load(ctx context.Context, caller entity.Caller, id string) (*entity.Training, error) {
	t, err := uc.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if !t.CanAccess(caller) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (uc *TrainingUseCase) list(ctx context.Context, ownerID string) ([]dto.TrainingResponse, error) {
	list, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TrainingResponse, 0, len(list))
	for _, t := range list {
		out = append(out, *toResponse(t))
	}
	return out, nil
}

func validCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.Invalid("training_code", "requerido")
	}
	return code, nil
}

func validPercent(p float64) error {
	if p < 0 || p > 100 {
		return domain.Invalid("training_effectiveness_percent", "debe estar entre 0 y 100")
	}
	return nil
}

func toResponse(t *entity.Training) *dto.TrainingResponse {
	versions := make([]dto.TrainingVersionDTO, 0, len(t.Versions))
	for _, v := range t.Versions {
		versions = append(versions, dto.TrainingVersionDTO{
			TrainingCode:                 v.TrainingCode,
			TrainingEffectivenessPercent: v.TrainingEffectivenessPercent,
			UpdatedBy:                    v.UpdatedBy,
			UpdatedAt:                    v.UpdatedAt,
		})
	}
	return &dto.TrainingResponse{
		ID:                           t.ID,
		TrainingCode:                 t.TrainingCode,
		TrainingEffectivenessPercent: t.TrainingEffectivenessPercent,
		OwnerID:                      t.OwnerID,
		Versions:                     versions,
		CreatedAt:                    t.CreatedAt,
		UpdatedAt:                    t.UpdatedAt,
	}
}
