// Package storage guarda los archivos subidos en el disco local bajo una raíz
// configurable (STORAGE_ROOT), en una subcarpeta por tipo de contenido.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamdevo/proyecto-eva/internal/domain"
)

// Local almacenamiento en disco.
type Local struct {
	root string
}

// NewLocal crea la raíz si no existe.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: raíz %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear raíz: %w", err)
	}
	return &Local{root: abs}, nil
}

// Root ruta absoluta de la raíz.
func (l *Local) Root() string { return l.root }

// Save escribe r en folder/name y devuelve la ruta relativa y los bytes escritos.
// Si la copia falla el archivo parcial se elimina.
func (l *Local) Save(_ context.Context, folder, name string, r io.Reader) (string, int64, error) {
	rel := filepath.ToSlash(filepath.Join(folder, name))
	full, err := l.resolve(rel)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: crear carpeta %s: %w", folder, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("storage: crear %s: %w", rel, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", 0, fmt.Errorf("storage: escribir %s: %w", rel, err)
	}
	return rel, n, nil
}

// Open abre el archivo para lectura. domain.ErrNotFound si no existe.
func (l *Local) Open(_ context.Context, rel string) (io.ReadCloser, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: %s: %w", rel, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: abrir %s: %w", rel, err)
	}
	return f, nil
}

// Remove elimina el archivo; no es error si ya no existe.
func (l *Local) Remove(_ context.Context, rel string) error {
	full, err := l.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: eliminar %s: %w", rel, err)
	}
	return nil
}

// resolve convierte la ruta relativa en absoluta sin salir de la raíz.
func (l *Local) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: ruta inválida %q: %w", rel, domain.ErrInvalidInput)
	}
	return filepath.Join(l.root, clean), nil
}
