package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "administrador"
	RoleEngineer   = "ingeniero"
	RoleTechnician = "tecnico"
	RoleViewer     = "consulta"
)

// Roles lista de roles válidos.
var Roles = []string{RoleAdmin, RoleEngineer, RoleTechnician, RoleViewer}

// WriterRoles roles que pueden crear, modificar o eliminar registros del inventario.
var WriterRoles = []string{RoleAdmin, RoleEngineer, RoleTechnician}

// User vista tipada de un registro de la tabla usuarios.
type User struct {
	ID           int64
	Name         string
	LastName     string
	Email        string
	Username     string
	PasswordHash string // bcrypt, nunca se serializa
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserFromRecord construye el usuario a partir de la fila genérica.
func UserFromRecord(r Record) *User {
	if r == nil {
		return nil
	}
	return &User{
		ID:           r.ID(),
		Name:         r.String("nombre"),
		LastName:     r.String("apellido"),
		Email:        r.String("email"),
		Username:     r.String("username"),
		PasswordHash: r.String("password_hash"),
		Role:         r.String("rol"),
		Active:       r.Bool("activo"),
		CreatedAt:    r.Time(ColumnCreatedAt),
		UpdatedAt:    r.Time(ColumnUpdatedAt),
	}
}
