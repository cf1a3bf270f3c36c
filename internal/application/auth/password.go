package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hash bcrypt de la contraseña. cost <= 0 usa bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash de contraseña: %w", err)
	}
	return string(hash), nil
}

// PasswordTransform reemplaza el campo password (ya validado) por password_hash
// antes de persistir un usuario.
func PasswordTransform(cost int) func(ctx context.Context, values map[string]any) error {
	return func(_ context.Context, values map[string]any) error {
		password, ok := values["password"].(string)
		if !ok {
			return nil
		}
		hash, err := HashPassword(password, cost)
		if err != nil {
			return err
		}
		values["password_hash"] = hash
		delete(values, "password")
		return nil
	}
}
