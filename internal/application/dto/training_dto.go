package dto

import "time"

// TrainingRequest entrada para crear (ambos campos requeridos) o actualizar (campos presentes).
type TrainingRequest struct {
	TrainingCode                 *string  `json:"training_code"`
	TrainingEffectivenessPercent *float64 `json:"training_effectiveness_percent"`
}

// TrainingVersionDTO estado anterior de un registro.
type TrainingVersionDTO struct {
	TrainingCode                 string    `json:"training_code"`
	TrainingEffectivenessPercent float64   `json:"training_effectiveness_percent"`
	UpdatedBy                    string    `json:"updated_by"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// TrainingResponse salida de un registro de capacitación.
type TrainingResponse struct {
	ID                           string               `json:"id"`
	TrainingCode                 string               `json:"training_code"`
	TrainingEffectivenessPercent float64              `json:"training_effectiveness_percent"`
	OwnerID                      string               `json:"owner_id"`
	Versions                     []TrainingVersionDTO `json:"versions"`
	CreatedAt                    time.Time            `json:"created_at"`
	UpdatedAt                    time.Time            `json:"updated_at"`
}
