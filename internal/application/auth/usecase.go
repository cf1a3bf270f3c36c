package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
	"github.com/kamdevo/proyecto-eva/pkg/jwt"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// Errores de autenticación con su mensaje para el cliente.
var (
	ErrInvalidCredentials = domain.Detail(domain.ErrUnauthorized, "Credenciales inválidas.")
	ErrInactiveUser       = domain.Detail(domain.ErrForbidden, "El usuario se encuentra inactivo.")
	ErrInvalidToken       = domain.Detail(domain.ErrUnauthorized, "Token inválido o expirado.")
	ErrSessionClosed      = domain.Detail(domain.ErrUnauthorized, "La sesión fue cerrada o expiró.")
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Auditor destino de las entradas LOGIN / LOGOUT.
type Auditor interface {
	Record(ctx context.Context, actor entity.Actor, e audit.Entry) error
}

// AuthUseCase casos de uso de autenticación: login, logout, usuario actual y
// resolución del actor a partir del token.
type AuthUseCase struct {
	users    *resource.Schema
	repo     repository.RecordRepository
	sessions repository.SessionRepository
	auditor  Auditor
	clock    clock.Clock
	jwtCfg   JWTConfig
	log      *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	registry *resource.Registry,
	repo repository.RecordRepository,
	sessions repository.SessionRepository,
	auditor Auditor,
	clk clock.Clock,
	jwtCfg JWTConfig,
	log *logger.Logger,
) (*AuthUseCase, error) {
	users, err := registry.Get(entity.TableUsers)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{
		users:    users,
		repo:     repo,
		sessions: sessions,
		auditor:  auditor,
		clock:    clk,
		jwtCfg:   jwtCfg,
		log:      log.Named("auth"),
	}, nil
}

// Login verifica email o username + password, abre una sesión y devuelve el JWT
// ligado a ella.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	ident := strings.TrimSpace(in.Identifier())
	if ident == "" || in.Password == "" {
		fields := map[string]string{}
		if ident == "" {
			fields["email"] = "El campo email o username es obligatorio."
		}
		if in.Password == "" {
			fields["password"] = "El campo password es obligatorio."
		}
		return nil, domain.NewValidationError(fields)
	}

	column := "username"
	if strings.Contains(ident, "@") {
		column, ident = "email", strings.ToLower(ident)
	}
	rec, err := uc.repo.FindBy(ctx, uc.users, column, ident)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	user := entity.UserFromRecord(rec)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}

	now := uc.clock.Now()
	sess := &entity.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IP:        ip,
		UserAgent: userAgent,
		ExpiresAt: now.Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute),
		CreatedAt: now,
	}
	if err := uc.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("crear sesión: %w", err)
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, sess.ID, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, now)
	if err != nil {
		return nil, err
	}

	actor := entity.Actor{UserID: user.ID, Role: user.Role, SessionID: sess.ID, IP: ip, UserAgent: userAgent}
	uc.audit(ctx, actor, entity.AuditLogin, "Inicio de sesión de "+user.Username)

	return &dto.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: sess.ExpiresAt,
		User:      *ToUserResponse(user),
	}, nil
}

// Authenticate valida el token, su sesión y el usuario; devuelve el actor con el rol
// vigente en la base (un cambio de rol aplica sin volver a iniciar sesión).
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (entity.Actor, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return entity.Actor{}, ErrInvalidToken
	}
	sess, err := uc.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return entity.Actor{}, ErrSessionClosed
	}
	if err != nil {
		return entity.Actor{}, err
	}
	if sess.UserID != claims.UserID || !sess.ActiveAt(uc.clock.Now()) {
		return entity.Actor{}, ErrSessionClosed
	}
	rec, err := uc.repo.FindByID(ctx, uc.users, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return entity.Actor{}, ErrInvalidToken
	}
	if err != nil {
		return entity.Actor{}, err
	}
	user := entity.UserFromRecord(rec)
	if !user.Active {
		return entity.Actor{}, ErrInactiveUser
	}
	return entity.Actor{UserID: user.ID, Role: user.Role, SessionID: sess.ID}, nil
}

// Logout revoca la sesión del actor. Un token de sesión revocada deja de ser aceptado.
func (uc *AuthUseCase) Logout(ctx context.Context, actor entity.Actor) error {
	if actor.SessionID == "" {
		return domain.ErrUnauthorized
	}
	if err := uc.sessions.Revoke(ctx, actor.SessionID, uc.clock.Now()); err != nil {
		return err
	}
	uc.audit(ctx, actor, entity.AuditLogout, "Cierre de sesión")
	return nil
}

// Me usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, actor entity.Actor) (*dto.UserResponse, error) {
	rec, err := uc.repo.FindByID(ctx, uc.users, actor.UserID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(entity.UserFromRecord(rec)), nil
}

func (uc *AuthUseCase) audit(ctx context.Context, actor entity.Actor, action entity.AuditAction, desc string) {
	if uc.auditor == nil {
		return
	}
	err := uc.auditor.Record(ctx, actor, audit.Entry{
		Action:      action,
		Table:       entity.TableUsers,
		RecordID:    actor.UserID,
		Description: desc,
	})
	if err != nil {
		uc.log.Warn().Err(err).Int64("actor_id", actor.UserID).Str("accion", string(action)).Msg("no se pudo registrar la auditoría")
	}
}

// ToUserResponse vista pública del usuario.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Nombre:    u.Name,
		Apellido:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
		Rol:       u.Role,
		Activo:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
