package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/storage"
)

func TestLocal_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	st, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	rel, n, err := st.Save(ctx, "documentos", "manual.pdf", strings.NewReader("contenido"))
	require.NoError(t, err)
	assert.Equal(t, "documentos/manual.pdf", rel)
	assert.Equal(t, int64(9), n)

	rc, err := st.Open(ctx, rel)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "contenido", string(body))

	_, _, err = st.Save(ctx, "documentos", "manual.pdf", strings.NewReader("otro"))
	assert.Error(t, err, "no sobrescribe un archivo existente")

	require.NoError(t, st.Remove(ctx, rel))
	require.NoError(t, st.Remove(ctx, rel))
	_, err = st.Open(ctx, rel)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocal_RechazaRutasFueraDeLaRaiz(t *testing.T) {
	st, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = st.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = st.Save(context.Background(), "..", "x.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
