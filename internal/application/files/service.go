// Package files gestiona los archivos adjuntos: subida al almacenamiento con su
// fila de metadatos en la tabla archivos, descarga y eliminación.
package files

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/validation"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// Storage almacenamiento de objetos por ruta relativa.
type Storage interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (string, int64, error)
	Open(ctx context.Context, rel string) (io.ReadCloser, error)
	Remove(ctx context.Context, rel string) error
}

// Auditor destino de las entradas de auditoría.
type Auditor interface {
	Record(ctx context.Context, actor entity.Actor, e audit.Entry) error
}

// Upload archivo recibido.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	EquipmentID *int64
	Description string
}

// Service casos de uso de archivos.
type Service struct {
	schema  *resource.Schema
	repo    repository.RecordRepository
	tx      repository.TxRunner
	storage Storage
	auditor Auditor
	log     *logger.Logger
}

// NewService construye el servicio. auditor puede ser nil.
func NewService(
	registry *resource.Registry,
	repo repository.RecordRepository,
	tx repository.TxRunner,
	storage Storage,
	auditor Auditor,
	log *logger.Logger,
) (*Service, error) {
	schema, err := registry.Get(entity.TableFiles)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{schema: schema, repo: repo, tx: tx, storage: storage, auditor: auditor, log: log.Named("archivos")}, nil
}

// FolderFor carpeta de almacenamiento según el tipo de contenido.
func FolderFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return entity.FolderImages
	case mediaType == "text/csv",
		strings.Contains(mediaType, "spreadsheet"),
		strings.Contains(mediaType, "excel"):
		return entity.FolderSpreadsheets
	case mediaType == "application/pdf",
		strings.HasPrefix(mediaType, "text/"),
		strings.Contains(mediaType, "msword"),
		strings.Contains(mediaType, "wordprocessing"),
		strings.Contains(mediaType, "opendocument.text"):
		return entity.FolderDocuments
	}
	return entity.FolderOther
}

// Upload guarda el archivo con un nombre único (uuid + extensión) y registra sus
// metadatos en una transacción. Si la fila no se puede insertar el archivo
// almacenado se elimina.
func (s *Service) Upload(ctx context.Context, actor entity.Actor, in Upload) (entity.Record, error) {
	if !actor.HasRole(entity.WriterRoles...) {
		return nil, domain.ErrForbidden
	}
	original := filepath.Base(strings.TrimSpace(in.Filename))
	if original == "." || original == string(filepath.Separator) || original == "" || in.Body == nil {
		return nil, domain.NewValidationError(map[string]string{"archivo": "El campo archivo es obligatorio."})
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(original))
	}
	folder := FolderFor(contentType)
	stored := uuid.NewString() + strings.ToLower(filepath.Ext(original))

	input := map[string]any{
		"nombre_original": original,
		"nombre_archivo":  stored,
		"ruta":            filepath.ToSlash(filepath.Join(folder, stored)),
		"carpeta":         folder,
		"tipo_mime":       nullable(contentType),
		"descripcion":     nullable(in.Description),
	}
	if in.EquipmentID != nil {
		input["equipo_id"] = *in.EquipmentID
	}
	values, fails, err := validation.Validate(ctx, s.schema.RuleSet(), input, validation.ModeCreate, validation.Env{
		Lookup: s.repo,
		Table:  s.schema.Table,
	})
	if err != nil {
		return nil, err
	}
	if len(fails) > 0 {
		return nil, domain.NewValidationError(fails)
	}

	rel, size, err := s.storage.Save(ctx, folder, stored, in.Body)
	if err != nil {
		return nil, err
	}
	values["ruta"] = rel
	values["tamano"] = size
	if actor.Authenticated() {
		values["usuario_id"] = actor.UserID
	}

	var rec entity.Record
	err = s.tx.Run(ctx, func(repo repository.RecordRepository) error {
		var err error
		rec, err = repo.Insert(ctx, s.schema, values)
		return err
	})
	if err != nil {
		if rmErr := s.storage.Remove(ctx, rel); rmErr != nil {
			s.log.Error().Err(rmErr).Str("ruta", rel).Msg("no se pudo eliminar el archivo huérfano")
		}
		return nil, fmt.Errorf("registrar archivo: %w", err)
	}

	s.audit(ctx, actor, audit.Entry{
		Action:      entity.AuditCreate,
		Table:       entity.TableFiles,
		RecordID:    rec.ID(),
		Description: fmt.Sprintf("Subida del archivo %s", original),
		After:       rec,
	})
	return s.schema.Present(rec), nil
}

// Download metadatos y contenido del archivo. El llamador cierra el ReadCloser.
func (s *Service) Download(ctx context.Context, actor entity.Actor, id int64) (*entity.StoredFile, io.ReadCloser, error) {
	if !actor.Authenticated() {
		return nil, nil, domain.ErrUnauthorized
	}
	rec, err := s.repo.FindByID(ctx, s.schema, id)
	if err != nil {
		return nil, nil, err
	}
	file := entity.StoredFileFromRecord(rec)
	body, err := s.storage.Open(ctx, file.Path)
	if err != nil {
		return nil, nil, err
	}
	return file, body, nil
}

// Delete elimina la fila de metadatos y luego el objeto almacenado. Un fallo al
// borrar el objeto se registra en el log; la fila ya no existe.
func (s *Service) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	if !actor.HasRole(entity.WriterRoles...) {
		return domain.ErrForbidden
	}
	rec, err := s.repo.FindByID(ctx, s.schema, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.schema, id); err != nil {
		return err
	}
	file := entity.StoredFileFromRecord(rec)
	if err := s.storage.Remove(ctx, file.Path); err != nil {
		s.log.Error().Err(err).Int64("archivo_id", id).Str("ruta", file.Path).Msg("no se pudo eliminar el archivo del almacenamiento")
	}
	s.audit(ctx, actor, audit.Entry{
		Action:      entity.AuditDelete,
		Table:       entity.TableFiles,
		RecordID:    id,
		Description: fmt.Sprintf("Eliminación del archivo %s", file.OriginalName),
		Before:      rec,
	})
	return nil
}

func (s *Service) audit(ctx context.Context, actor entity.Actor, e audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, actor, e); err != nil {
		s.log.Warn().Err(err).Int64("actor_id", actor.UserID).Str("accion", string(e.Action)).Msg("no se pudo registrar la auditoría")
	}
}

func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
