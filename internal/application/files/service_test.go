package files_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/application/files"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/storage"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

var tech = entity.Actor{UserID: 3, Role: entity.RoleTechnician}

type failingTx struct{}

func (failingTx) Run(context.Context, func(repository.RecordRepository) error) error {
	return errors.New("conexión perdida")
}

func setup(t *testing.T, tx repository.TxRunner) (*files.Service, *memory.Store, string) {
	t.Helper()
	st := memory.NewStore(clock.NewFixed(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	root := t.TempDir()
	disk, err := storage.NewLocal(root)
	require.NoError(t, err)
	if tx == nil {
		tx = st
	}
	svc, err := files.NewService(resource.Catalog(), st, tx, disk, nil, nil)
	require.NoError(t, err)
	return svc, st, root
}

func TestFolderFor(t *testing.T) {
	cases := map[string]string{
		"image/png":                 entity.FolderImages,
		"application/pdf":           entity.FolderDocuments,
		"text/plain; charset=utf-8": entity.FolderDocuments,
		"application/vnd.ms-excel":  entity.FolderSpreadsheets,
		"text/csv":                  entity.FolderSpreadsheets,
		"application/zip":           entity.FolderOther,
		"":                          entity.FolderOther,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": entity.FolderSpreadsheets,
	}
	for ct, want := range cases {
		assert.Equal(t, want, files.FolderFor(ct), ct)
	}
}

func TestUploadDownloadDelete(t *testing.T) {
	svc, st, root := setup(t, nil)
	ctx := context.Background()
	eqSchema, _ := resource.Catalog().Get(resource.TableEquipment)
	eq, err := st.Insert(ctx, eqSchema, map[string]any{"nombre": "Monitor", "codigo": "EQ-1"})
	require.NoError(t, err)
	eqID := eq.ID()

	rec, err := svc.Upload(ctx, tech, files.Upload{
		Filename:    "Manual Usuario.PDF",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4"),
		EquipmentID: &eqID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Manual Usuario.PDF", rec.String("nombre_original"))
	assert.Equal(t, entity.FolderDocuments, rec.String("carpeta"))
	assert.True(t, strings.HasSuffix(rec.String("nombre_archivo"), ".pdf"))
	assert.Equal(t, int64(8), rec.Int("tamano"))
	assert.Equal(t, int64(3), rec.Int("usuario_id"))
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(rec.String("ruta"))))

	meta, body, err := svc.Download(ctx, tech, rec.ID())
	require.NoError(t, err)
	content, _ := io.ReadAll(body)
	require.NoError(t, body.Close())
	assert.Equal(t, "%PDF-1.4", string(content))
	assert.Equal(t, "Manual Usuario.PDF", meta.OriginalName)

	require.NoError(t, svc.Delete(ctx, tech, rec.ID()))
	assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(rec.String("ruta"))))
	_, _, err = svc.Download(ctx, tech, rec.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpload_FallaDeInsercionEliminaArchivo(t *testing.T) {
	svc, _, root := setup(t, failingTx{})

	_, err := svc.Upload(context.Background(), tech, files.Upload{
		Filename: "foto.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpg"),
	})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, entity.FolderImages))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpload_Validaciones(t *testing.T) {
	svc, _, _ := setup(t, nil)
	ctx := context.Background()
	missing := int64(77)

	_, err := svc.Upload(ctx, tech, files.Upload{Filename: "x.txt", Body: strings.NewReader("x"), EquipmentID: &missing})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "equipo_id")

	_, err = svc.Upload(ctx, tech, files.Upload{Body: strings.NewReader("x")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "archivo")

	_, err = svc.Upload(ctx, entity.Actor{UserID: 9, Role: entity.RoleViewer}, files.Upload{Filename: "x.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
