// Package seed carga los datos iniciales: el usuario administrador y el catálogo de
// servicios y áreas del hospital a partir de un XML (normalmente en ISO-8859-1).
//
// Formato del catálogo:
//
//	<?xml version="1.0" encoding="ISO-8859-1"?>
//	<catalogo>
//	  <servicio nombre="Urgencias" codigo="URG" ubicacion="Bloque A">
//	    <descripcion>Atención de urgencias</descripcion>
//	    <area nombre="Triage" piso="1"/>
//	  </servicio>
//	</catalogo>
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// Area área de un servicio en el catálogo.
type Area struct {
	Nombre      string
	Piso        string
	Descripcion string
}

// Service servicio del catálogo con sus áreas.
type Service struct {
	Nombre      string
	Codigo      string
	Ubicacion   string
	Descripcion string
	Areas       []Area
}

// Admin datos del administrador inicial.
type Admin struct {
	Email    string
	Username string
	Password string
}

// Result conteos de lo creado; lo existente se omite.
type Result struct {
	ServicesCreated int
	AreasCreated    int
	Skipped         int
}

// ParseCatalog lee el catálogo. Acepta UTF-8, ISO-8859-1 y Windows-1252.
func ParseCatalog(r io.Reader) ([]Service, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("seed: leer catálogo XML: %w", err)
	}
	root := doc.SelectElement("catalogo")
	if root == nil {
		return nil, fmt.Errorf("seed: falta el elemento <catalogo>: %w", domain.ErrInvalidInput)
	}

	var out []Service
	for _, el := range root.SelectElements("servicio") {
		svc := Service{
			Nombre:      attr(el, "nombre"),
			Codigo:      attr(el, "codigo"),
			Ubicacion:   attr(el, "ubicacion"),
			Descripcion: childText(el, "descripcion"),
		}
		if svc.Nombre == "" {
			continue
		}
		for _, a := range el.SelectElements("area") {
			area := Area{Nombre: attr(a, "nombre"), Piso: attr(a, "piso"), Descripcion: childText(a, "descripcion")}
			if area.Nombre != "" {
				svc.Areas = append(svc.Areas, area)
			}
		}
		out = append(out, svc)
	}
	return out, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("seed: codificación no soportada %q", label)
}

func attr(el *etree.Element, name string) string {
	return strings.TrimSpace(el.SelectAttrValue(name, ""))
}

func childText(el *etree.Element, name string) string {
	if c := el.SelectElement(name); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

// Seeder escribe a través del servicio de recursos (validación, hash de contraseña
// y auditoría) con el actor de sistema.
type Seeder struct {
	resources *appresource.Service
	repo      repository.RecordRepository
	stats     repository.StatsRepository
	log       *logger.Logger
}

// NewSeeder construye el seeder.
func NewSeeder(resources *appresource.Service, repo repository.RecordRepository, stats repository.StatsRepository, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{resources: resources, repo: repo, stats: stats, log: log.Named("seed")}
}

// EnsureAdmin crea el administrador si no existe un usuario con ese username.
func (s *Seeder) EnsureAdmin(ctx context.Context, a Admin) (bool, error) {
	users, err := s.resources.Registry().Get(entity.TableUsers)
	if err != nil {
		return false, err
	}
	_, err = s.repo.FindBy(ctx, users, "username", a.Username)
	switch {
	case err == nil:
		s.log.Info().Str("username", a.Username).Msg("el administrador ya existe")
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}
	if _, err := s.resources.Create(ctx, entity.System, entity.TableUsers, map[string]any{
		"nombre":   "Administrador",
		"email":    a.Email,
		"username": a.Username,
		"password": a.Password,
		"rol":      entity.RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("seed: crear administrador: %w", err)
	}
	s.log.Info().Str("username", a.Username).Msg("administrador creado")
	return true, nil
}

// ImportCatalog crea los servicios y áreas que no existan. Un servicio existente
// (mismo nombre) se reutiliza para sus áreas.
func (s *Seeder) ImportCatalog(ctx context.Context, catalog []Service) (Result, error) {
	var res Result
	services, err := s.resources.Registry().Get(resource.TableServices)
	if err != nil {
		return res, err
	}
	for _, svc := range catalog {
		id, created, err := s.ensureService(ctx, services, svc)
		if err != nil {
			return res, err
		}
		if created {
			res.ServicesCreated++
		} else {
			res.Skipped++
		}
		for _, a := range svc.Areas {
			n, err := s.stats.Count(ctx, resource.TableAreas, query.Eq("nombre", a.Nombre), query.Eq("servicio_id", id))
			if err != nil {
				return res, err
			}
			if n > 0 {
				res.Skipped++
				continue
			}
			if _, err := s.resources.Create(ctx, entity.System, resource.TableAreas, map[string]any{
				"nombre":      a.Nombre,
				"servicio_id": id,
				"piso":        nullable(a.Piso),
				"descripcion": nullable(a.Descripcion),
			}); err != nil {
				return res, fmt.Errorf("seed: área %q de %q: %w", a.Nombre, svc.Nombre, err)
			}
			res.AreasCreated++
		}
	}
	s.log.Info().
		Int("servicios", res.ServicesCreated).
		Int("areas", res.AreasCreated).
		Int("omitidos", res.Skipped).
		Msg("catálogo importado")
	return res, nil
}

func (s *Seeder) ensureService(ctx context.Context, schema *resource.Schema, svc Service) (int64, bool, error) {
	existing, err := s.repo.FindBy(ctx, schema, "nombre", svc.Nombre)
	if err == nil {
		return existing.ID(), false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, false, err
	}
	rec, err := s.resources.Create(ctx, entity.System, resource.TableServices, map[string]any{
		"nombre":      svc.Nombre,
		"codigo":      nullable(svc.Codigo),
		"ubicacion":   nullable(svc.Ubicacion),
		"descripcion": nullable(svc.Descripcion),
	})
	if err != nil {
		return 0, false, fmt.Errorf("seed: servicio %q: %w", svc.Nombre, err)
	}
	return rec.ID(), true, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
