package entity

// Actor usuario autenticado que ejecuta una operación. Se pasa explícitamente
// a cada caso de uso para sellar propietario y atribuir la auditoría.
type Actor struct {
	UserID    int64
	Role      string
	SessionID string
	IP        string
	UserAgent string
}

// System actor usado por procesos internos (seed, migraciones).
var System = Actor{Role: RoleAdmin}

// Authenticated informa si el actor corresponde a un usuario real.
func (a Actor) Authenticated() bool { return a.UserID > 0 }

// HasRole informa si el actor tiene alguno de los roles indicados.
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
