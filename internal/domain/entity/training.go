package entity

import "time"

// TrainingVersion snapshot del estado anterior de un registro de capacitación.
type TrainingVersion struct {
	TrainingCode                 string
	TrainingEffectivenessPercent float64
	UpdatedBy                    string
	UpdatedAt                    time.Time
}

// Training registro de capacitación de un usuario con historial de versiones.
type Training struct {
	ID                           string
	TrainingCode                 string
	TrainingEffectivenessPercent float64 // 0..100
	OwnerID                      string
	Versions                     []TrainingVersion
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// CanAccess indica si el caller es dueño del registro o administrador.
func (t *Training) CanAccess(c Caller) bool {
	return t.OwnerID == c.ID || c.IsAdmin()
}
