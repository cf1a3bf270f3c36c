package entity

// AuditAction acción registrada en la bitácora de auditoría.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditView   AuditAction = "VIEW"
	AuditLogin  AuditAction = "LOGIN"
	AuditLogout AuditAction = "LOGOUT"
)

// AuditActions acciones válidas (usadas también por el filtro de listado).
var AuditActions = []string{
	string(AuditCreate), string(AuditUpdate), string(AuditDelete),
	string(AuditView), string(AuditLogin), string(AuditLogout),
}

// Tablas con tratamiento especial.
const (
	TableAudit = "auditoria"
	TableFiles = "archivos"
	TableUsers = "usuarios"
)
