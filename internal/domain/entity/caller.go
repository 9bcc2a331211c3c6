package entity

// Caller identidad opaca del usuario autenticado (id + rol). El protocolo no la verifica, solo la copia.
type Caller struct {
	ID   string
	Role string
}

// IsAdmin indica si el caller tiene rol administrador.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
