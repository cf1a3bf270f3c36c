package entity

import "time"

// Session sesión emitida en el login; el JWT la referencia por su jti.
type Session struct {
	ID        string
	UserID    int64
	IP        string
	UserAgent string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// ActiveAt informa si la sesión sigue vigente en t.
func (s *Session) ActiveAt(t time.Time) bool {
	return s != nil && s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
