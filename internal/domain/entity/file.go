package entity

// Carpetas de almacenamiento según el tipo de contenido.
const (
	FolderImages       = "imagenes"
	FolderDocuments    = "documentos"
	FolderSpreadsheets = "hojas_calculo"
	FolderOther        = "otros"
)

// StoredFile vista tipada de un registro de la tabla archivos.
type StoredFile struct {
	ID           int64
	OriginalName string
	StoredName   string
	Path         string
	Folder       string
	ContentType  string
	Size         int64
	EquipmentID  *int64
}

// StoredFileFromRecord construye la vista a partir de la fila genérica.
func StoredFileFromRecord(r Record) *StoredFile {
	if r == nil {
		return nil
	}
	return &StoredFile{
		ID:           r.ID(),
		OriginalName: r.String("nombre_original"),
		StoredName:   r.String("nombre_archivo"),
		Path:         r.String("ruta"),
		Folder:       r.String("carpeta"),
		ContentType:  r.String("tipo_mime"),
		Size:         r.Int("tamano"),
		EquipmentID:  r.IntPtr("equipo_id"),
	}
}
