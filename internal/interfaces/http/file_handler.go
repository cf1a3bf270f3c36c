package http

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/files"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
)

var errMissingFile = domain.NewValidationError(map[string]string{"archivo": "El archivo es obligatorio."})

// FileHandler subida, descarga y eliminación de archivos adjuntos.
type FileHandler struct {
	svc *files.Service
	res *Responder
}

// NewFileHandler construye el handler.
func NewFileHandler(svc *files.Service, res *Responder) *FileHandler {
	return &FileHandler{svc: svc, res: res}
}

// Upload POST /api/archivos/upload (multipart: archivo, equipo_id?, descripcion?)
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("archivo")
	if err != nil {
		return h.res.Fail(c, errMissingFile, entity.TableFiles, "subir")
	}
	in, closeFn, err := uploadFrom(c, fh)
	if err != nil {
		return h.res.Fail(c, err, entity.TableFiles, "subir")
	}
	defer closeFn()

	rec, err := h.svc.Upload(c.UserContext(), GetActor(c), in)
	if err != nil {
		return h.res.Fail(c, err, entity.TableFiles, "subir")
	}
	return created(c, "Archivo subido exitosamente", rec)
}

// Download GET /api/archivos/{id}/download: envía el contenido con el nombre original.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.res.Fail(c, err, entity.TableFiles, "descargar")
	}
	file, body, err := h.svc.Download(c.UserContext(), GetActor(c), id)
	if err != nil {
		return h.res.Fail(c, err, entity.TableFiles, "descargar")
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, attachment(file.OriginalName))
	size := int(file.Size)
	if size <= 0 {
		size = -1
	}
	// fasthttp cierra body al terminar de enviarlo.
	return c.Status(fiber.StatusOK).SendStream(body, size)
}

// Delete DELETE /api/archivos/{id}: fila de metadatos y objeto almacenado.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.res.Fail(c, err, entity.TableFiles, "eliminar")
	}
	if err := h.svc.Delete(c.UserContext(), GetActor(c), id); err != nil {
		return h.res.Fail(c, err, entity.TableFiles, "eliminar")
	}
	return ok(c, "Archivo eliminado exitosamente", nil)
}

func uploadFrom(c *fiber.Ctx, fh *multipart.FileHeader) (files.Upload, func(), error) {
	in := files.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Description: strings.TrimSpace(c.FormValue("descripcion")),
	}
	if raw := strings.TrimSpace(c.FormValue("equipo_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return in, nil, domain.NewValidationError(map[string]string{"equipo_id": "El campo equipo_id debe ser un número entero."})
		}
		in.EquipmentID = &id
	}
	f, err := fh.Open()
	if err != nil {
		return in, nil, fmt.Errorf("abrir archivo subido: %w", err)
	}
	in.Body = f
	return in, func() { _ = f.Close() }, nil
}

func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename=%q`, strings.ReplaceAll(name, `"`, ""))
}
