package dto

import "time"

// LoginRequest entrada de POST /api/auth/login: email o username + password.
type LoginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identifier devuelve el identificador enviado (login, email o username, en ese orden).
func (r LoginRequest) Identifier() string {
	switch {
	case r.Login != "":
		return r.Login
	case r.Email != "":
		return r.Email
	}
	return r.Username
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        int64     `json:"id"`
	Nombre    string    `json:"nombre"`
	Apellido  string    `json:"apellido"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Rol       string    `json:"rol"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse token de acceso ligado a la sesión creada.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
