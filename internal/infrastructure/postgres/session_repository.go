package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo sesiones de login (tabla sesiones).
type SessionRepo struct {
	db Querier
}

// NewSessionRepository construye el adaptador de sesiones.
func NewSessionRepository(db Querier) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create persiste una nueva sesión.
func (r *SessionRepo) Create(ctx context.Context, s *entity.Session) error {
	query := `
		INSERT INTO sesiones (id, usuario_id, ip, user_agent, expira_en, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))`
	var createdAt *time.Time
	if !s.CreatedAt.IsZero() {
		createdAt = &s.CreatedAt
	}
	_, err := r.db.Exec(ctx, query, s.ID, s.UserID, s.IP, s.UserAgent, s.ExpiresAt, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert session: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get obtiene una sesión por id (jti del token).
func (r *SessionRepo) Get(ctx context.Context, id string) (*entity.Session, error) {
	query := `
		SELECT id, usuario_id, COALESCE(ip, ''), COALESCE(user_agent, ''), expira_en, revocada_en, created_at
		FROM sesiones WHERE id = $1`
	var s entity.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.IP, &s.UserAgent, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Revoke marca la sesión como revocada (idempotente).
func (r *SessionRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE sesiones SET revocada_en = COALESCE(revocada_en, $2) WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
