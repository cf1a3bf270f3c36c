package resource

import (
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	v "github.com/kamdevo/proyecto-eva/internal/domain/validation"
)

// Enumeraciones del dominio.
var (
	RiskClasses         = []string{"I", "IIA", "IIB", "III"}
	MaintenanceTypes    = []string{"preventivo", "correctivo", "predictivo"}
	MaintenanceStates   = []string{"programado", "en_proceso", "completado", "cancelado"}
	CalibrationStates   = []string{"programada", "realizada", "cancelada"}
	CalibrationResults  = []string{"conforme", "no_conforme"}
	ContingencySeverity = []string{"baja", "media", "alta", "critica"}
	ContingencyStates   = []string{"abierta", "en_proceso", "cerrada"}
	CorrectiveStates    = []string{"pendiente", "en_proceso", "resuelto"}
)

// Tablas del catálogo.
const (
	TableServices      = "servicios"
	TableAreas         = "areas"
	TableOwners        = "propietarios"
	TableManufacturers = "fabricantes"
	TableSuppliers     = "proveedores"
	TableEquipmentType = "tipos_equipo"
	TableEquipment     = "equipos"
	TableMaintenance   = "mantenimientos"
	TableCalibrations  = "calibraciones"
	TableContingencies = "contingencias"
	TableCorrectives   = "correctivos"
	TableContacts      = "contactos"
	TableSpareParts    = "repuestos"
)

func str(name string, rules ...v.Rule) Field {
	return Field{Name: name, Type: TypeString, Rules: rules}
}

func optStr(name string, max int) Field {
	return str(name, v.Nullable(), v.MaxLength(max))
}

func text(name string) Field {
	return str(name, v.Nullable())
}

func active() Field {
	return Field{Name: "activo", Type: TypeBool, Default: true}
}

func fk(name, table string, required bool) Field {
	presence := v.Nullable()
	if required {
		presence = v.Required()
	}
	return Field{Name: name, Type: TypeInteger, Rules: []v.Rule{presence, v.Exists(table, "")}}
}

func money(name string) Field {
	return Field{Name: name, Type: TypeDecimal, Rules: []v.Rule{v.Nullable(), v.Min(0)}}
}

func date(name string, required bool) Field {
	presence := v.Nullable()
	if required {
		presence = v.Required()
	}
	return Field{Name: name, Type: TypeDate, Rules: []v.Rule{presence}}
}

func enum(name string, required bool, values []string) Field {
	presence := v.Nullable()
	if required {
		presence = v.Required()
	}
	return str(name, presence, v.In(values...))
}

func owner() Field {
	return Field{Name: "usuario_id", Type: TypeInteger, Internal: true}
}

func intFilter(cols ...string) []query.Filter {
	out := make([]query.Filter, 0, len(cols)*2)
	for _, c := range cols {
		out = append(out, query.Filter{Param: c, Column: c, Kind: query.KindInteger})
	}
	return out
}

func strFilter(cols ...string) []query.Filter {
	out := make([]query.Filter, 0, len(cols))
	for _, c := range cols {
		out = append(out, query.Filter{Param: c, Column: c, Kind: query.KindString})
	}
	return out
}

var activeFilter = query.Filter{Param: "activo", Column: "activo", Kind: query.KindBool}

var byNewest = query.Sort{Column: entity.ColumnCreatedAt, Desc: true}

func sortable(cols ...string) []string {
	return append([]string{entity.ColumnID, entity.ColumnCreatedAt, entity.ColumnUpdatedAt}, cols...)
}

func join(groups ...[]query.Filter) []query.Filter {
	var out []query.Filter
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// simpleCatalog esquema de los catálogos nombre + descripción + activo que solo
// referencian los equipos.
func simpleCatalog(table, label string, extra ...Field) *Schema {
	fields := []Field{
		str("nombre", v.Required(), v.MaxLength(150), v.Unique("", "")),
	}
	fields = append(fields, extra...)
	fields = append(fields, active())
	return &Schema{
		Table:        table,
		Label:        label,
		Fields:       fields,
		Searchable:   []string{"nombre"},
		Filters:      []query.Filter{activeFilter},
		Sortable:     sortable("nombre"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		Dependents: []Dependent{
			{Table: TableEquipment, Column: singularFK(table), ActiveOnly: true, Label: "equipos activos"},
		},
		Audited: true,
	}
}

func singularFK(table string) string {
	switch table {
	case TableOwners:
		return "propietario_id"
	case TableManufacturers:
		return "fabricante_id"
	case TableSuppliers:
		return "proveedor_id"
	case TableEquipmentType:
		return "tipo_equipo_id"
	}
	return ""
}

// equipmentChild esquema base de los registros que cuelgan de un equipo.
func equipmentChild(table, label, dateColumn string, fields ...Field) *Schema {
	all := append([]Field{fk("equipo_id", TableEquipment, true)}, fields...)
	all = append(all, owner())
	return &Schema{
		Table:       table,
		Label:       label,
		Fields:      all,
		Sortable:    sortable(dateColumn),
		DefaultSort: query.Sort{Column: dateColumn, Desc: true},
		DateColumn:  dateColumn,
		OwnerColumn: "usuario_id",
		Relations: []Relation{
			{Name: "equipo", Column: "equipo_id", Table: TableEquipment, Eager: true},
		},
		Audited: true,
	}
}

// Catalog registro con todas las entidades administradas.
func Catalog() *Registry {
	servicios := &Schema{
		Table: TableServices,
		Label: "servicio",
		Fields: []Field{
			str("nombre", v.Required(), v.MaxLength(150), v.Unique("", "")),
			str("codigo", v.Nullable(), v.MaxLength(50), v.Unique("", "")),
			text("descripcion"),
			optStr("ubicacion", 150),
			active(),
		},
		Searchable:   []string{"nombre", "codigo", "descripcion"},
		Filters:      []query.Filter{activeFilter},
		Sortable:     sortable("nombre", "codigo"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		Dependents: []Dependent{
			{Table: TableAreas, Column: "servicio_id", ActiveOnly: true, Label: "áreas activas"},
			{Table: TableEquipment, Column: "servicio_id", ActiveOnly: true, Label: "equipos activos"},
		},
		Audited: true,
	}

	areas := &Schema{
		Table: TableAreas,
		Label: "área",
		Fields: []Field{
			str("nombre", v.Required(), v.MaxLength(150)),
			fk("servicio_id", TableServices, false),
			optStr("piso", 20),
			text("descripcion"),
			active(),
		},
		Searchable:   []string{"nombre", "piso", "descripcion"},
		Filters:      append(intFilter("servicio_id"), activeFilter),
		Sortable:     sortable("nombre"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		Relations: []Relation{
			{Name: "servicio", Column: "servicio_id", Table: TableServices, Eager: true},
		},
		Dependents: []Dependent{
			{Table: TableEquipment, Column: "area_id", ActiveOnly: true, Label: "equipos activos"},
		},
		Audited: true,
	}

	propietarios := simpleCatalog(TableOwners, "propietario",
		optStr("nit", 30), optStr("telefono", 30), str("email", v.Nullable(), v.MaxLength(150), v.Email()))
	fabricantes := simpleCatalog(TableManufacturers, "fabricante",
		optStr("pais", 80), optStr("sitio_web", 255))
	proveedores := simpleCatalog(TableSuppliers, "proveedor",
		str("nit", v.Nullable(), v.MaxLength(30), v.Unique("", "")), optStr("telefono", 30),
		str("email", v.Nullable(), v.MaxLength(150), v.Email()), optStr("direccion", 255))
	proveedores.Searchable = []string{"nombre", "nit", "email"}
	proveedores.Dependents = append(proveedores.Dependents,
		Dependent{Table: TableSpareParts, Column: "proveedor_id", ActiveOnly: true, Label: "repuestos activos"})
	tipos := simpleCatalog(TableEquipmentType, "tipo de equipo", text("descripcion"))

	equipos := &Schema{
		Table: TableEquipment,
		Label: "equipo",
		Fields: []Field{
			str("nombre", v.Required(), v.MaxLength(200)),
			str("codigo", v.Required(), v.MaxLength(50), v.Unique("", "")),
			optStr("serie", 100),
			optStr("marca", 100),
			optStr("modelo", 100),
			fk("area_id", TableAreas, false),
			fk("servicio_id", TableServices, false),
			fk("propietario_id", TableOwners, false),
			fk("fabricante_id", TableManufacturers, false),
			fk("proveedor_id", TableSuppliers, false),
			fk("tipo_equipo_id", TableEquipmentType, false),
			enum("clasificacion_riesgo", false, RiskClasses),
			money("costo"),
			date("fecha_adquisicion", false),
			{Name: "vida_util_anios", Type: TypeInteger, Rules: []v.Rule{v.Nullable(), v.Min(0)}},
			{Name: "periodicidad_mantenimiento_meses", Type: TypeInteger, Rules: []v.Rule{v.Nullable(), v.Min(1)}},
			text("observaciones"),
			owner(),
			active(),
		},
		Searchable: []string{"nombre", "codigo", "serie", "marca", "modelo"},
		Filters: join(
			intFilter("area_id", "servicio_id", "propietario_id", "fabricante_id", "proveedor_id", "tipo_equipo_id"),
			[]query.Filter{
				{Param: "servicios", Column: "servicio_id", Kind: query.KindInteger},
				{Param: "areas", Column: "area_id", Kind: query.KindInteger},
			},
			strFilter("clasificacion_riesgo"),
			[]query.Filter{activeFilter},
		),
		Sortable:     sortable("nombre", "codigo", "costo", "fecha_adquisicion"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		OwnerColumn:  "usuario_id",
		Relations: []Relation{
			{Name: "servicio", Column: "servicio_id", Table: TableServices, Eager: true},
			{Name: "area", Column: "area_id", Table: TableAreas, Eager: true},
			{Name: "propietario", Column: "propietario_id", Table: TableOwners, Eager: true},
			{Name: "fabricante", Column: "fabricante_id", Table: TableManufacturers},
			{Name: "proveedor", Column: "proveedor_id", Table: TableSuppliers},
			{Name: "tipo", Column: "tipo_equipo_id", Table: TableEquipmentType},
		},
		Dependents: []Dependent{
			{Table: TableMaintenance, Column: "equipo_id", Label: "mantenimientos"},
			{Table: TableCalibrations, Column: "equipo_id", Label: "calibraciones"},
			{Table: TableContingencies, Column: "equipo_id", Label: "contingencias"},
			{Table: TableCorrectives, Column: "equipo_id", Label: "correctivos"},
			{Table: TableSpareParts, Column: "equipo_id", Label: "repuestos"},
			{Table: TableContacts, Column: "equipo_id", Label: "contactos"},
			{Table: entity.TableFiles, Column: "equipo_id", Label: "archivos"},
		},
		Audited: true,
	}

	mantenimientos := equipmentChild(TableMaintenance, "mantenimiento", "fecha_programada",
		enum("tipo", true, MaintenanceTypes),
		text("descripcion"),
		date("fecha_programada", true),
		date("fecha_realizacion", false),
		Field{Name: "estado", Type: TypeString, Rules: []v.Rule{v.In(MaintenanceStates...)}, Default: "programado"},
		money("costo"),
		optStr("tecnico", 150),
		text("observaciones"),
	)
	mantenimientos.Searchable = []string{"descripcion", "tecnico", "observaciones"}
	mantenimientos.Filters = join(intFilter("equipo_id"), strFilter("estado", "tipo"))
	mantenimientos.Sortable = sortable("fecha_programada", "fecha_realizacion", "estado")

	calibraciones := equipmentChild(TableCalibrations, "calibración", "fecha_calibracion",
		date("fecha_calibracion", true),
		date("fecha_vencimiento", false),
		optStr("entidad_calibradora", 150),
		optStr("certificado", 100),
		enum("resultado", false, CalibrationResults),
		Field{Name: "estado", Type: TypeString, Rules: []v.Rule{v.In(CalibrationStates...)}, Default: "programada"},
		money("costo"),
		text("observaciones"),
	)
	calibraciones.Searchable = []string{"entidad_calibradora", "certificado", "observaciones"}
	calibraciones.Filters = join(intFilter("equipo_id"), strFilter("estado", "resultado"))
	calibraciones.Sortable = sortable("fecha_calibracion", "fecha_vencimiento")

	contingencias := equipmentChild(TableContingencies, "contingencia", "fecha_reporte",
		str("titulo", v.Required(), v.MaxLength(200)),
		str("descripcion", v.Required()),
		Field{Name: "fecha_reporte", Type: TypeDateTime, Rules: []v.Rule{v.Required()}},
		enum("severidad", true, ContingencySeverity),
		Field{Name: "estado", Type: TypeString, Rules: []v.Rule{v.In(ContingencyStates...)}, Default: "abierta"},
		Field{Name: "fecha_cierre", Type: TypeDateTime, Rules: []v.Rule{v.Nullable()}},
		text("acciones_tomadas"),
	)
	contingencias.Searchable = []string{"titulo", "descripcion"}
	contingencias.Filters = join(intFilter("equipo_id"), strFilter("estado", "severidad"))
	contingencias.Sortable = sortable("fecha_reporte", "severidad", "estado")

	correctivos := equipmentChild(TableCorrectives, "correctivo", "fecha_reporte",
		str("descripcion_falla", v.Required()),
		text("diagnostico"),
		text("solucion"),
		date("fecha_reporte", true),
		date("fecha_solucion", false),
		Field{Name: "estado", Type: TypeString, Rules: []v.Rule{v.In(CorrectiveStates...)}, Default: "pendiente"},
		money("costo"),
		optStr("tecnico", 150),
	)
	correctivos.Searchable = []string{"descripcion_falla", "diagnostico", "solucion", "tecnico"}
	correctivos.Filters = join(intFilter("equipo_id"), strFilter("estado"))
	correctivos.Sortable = sortable("fecha_reporte", "fecha_solucion", "estado")

	contactos := &Schema{
		Table: TableContacts,
		Label: "contacto",
		Fields: []Field{
			str("nombre", v.Required(), v.MaxLength(150)),
			optStr("cargo", 100),
			optStr("empresa", 150),
			optStr("telefono", 30),
			str("email", v.Nullable(), v.MaxLength(150), v.Email()),
			fk("equipo_id", TableEquipment, false),
			fk("proveedor_id", TableSuppliers, false),
			active(),
		},
		Searchable:   []string{"nombre", "cargo", "empresa", "email", "telefono"},
		Filters:      append(intFilter("equipo_id", "proveedor_id"), activeFilter),
		Sortable:     sortable("nombre", "empresa"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		Relations: []Relation{
			{Name: "equipo", Column: "equipo_id", Table: TableEquipment, Eager: true},
			{Name: "proveedor", Column: "proveedor_id", Table: TableSuppliers, Eager: true},
		},
		Audited: true,
	}

	repuestos := &Schema{
		Table: TableSpareParts,
		Label: "repuesto",
		Fields: []Field{
			str("nombre", v.Required(), v.MaxLength(150)),
			str("codigo", v.Required(), v.MaxLength(50), v.Unique("", "")),
			text("descripcion"),
			fk("equipo_id", TableEquipment, false),
			fk("proveedor_id", TableSuppliers, false),
			{Name: "stock", Type: TypeInteger, Rules: []v.Rule{v.Min(0)}, Default: int64(0)},
			{Name: "stock_minimo", Type: TypeInteger, Rules: []v.Rule{v.Min(0)}, Default: int64(0)},
			money("precio"),
			active(),
		},
		Searchable:   []string{"nombre", "codigo", "descripcion"},
		Filters:      append(intFilter("equipo_id", "proveedor_id"), activeFilter),
		Sortable:     sortable("nombre", "codigo", "stock", "precio"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		Relations: []Relation{
			{Name: "equipo", Column: "equipo_id", Table: TableEquipment, Eager: true},
			{Name: "proveedor", Column: "proveedor_id", Table: TableSuppliers, Eager: true},
		},
		Audited: true,
	}

	usuarios := &Schema{
		Table: entity.TableUsers,
		Label: "usuario",
		Fields: []Field{
			str("nombre", v.Required(), v.MaxLength(100)),
			optStr("apellido", 100),
			str("email", v.Required(), v.MaxLength(150), v.Email(), v.Unique("", "")),
			str("username", v.Required(), v.MaxLength(50), v.Unique("", "")),
			{Name: "password", Type: TypeString, Rules: []v.Rule{v.Required(), v.MinLength(8), v.MaxLength(72)}, Virtual: true},
			{Name: "password_hash", Type: TypeString, Hidden: true, Internal: true},
			enum("rol", true, entity.Roles),
			optStr("telefono", 30),
			active(),
		},
		Searchable:   []string{"nombre", "apellido", "email", "username"},
		Filters:      append(strFilter("rol"), activeFilter),
		Sortable:     sortable("nombre", "email", "username"),
		DefaultSort:  byNewest,
		ActiveColumn: "activo",
		Audited:      true,
		ReadRoles:    []string{entity.RoleAdmin},
		WriteRoles:   []string{entity.RoleAdmin},
	}

	auditoria := &Schema{
		Table: entity.TableAudit,
		Label: "registro de auditoría",
		Fields: []Field{
			{Name: "usuario_id", Type: TypeInteger, Rules: []v.Rule{v.Nullable()}},
			str("accion", v.Required(), v.In(entity.AuditActions...)),
			str("tabla", v.Required(), v.MaxLength(100)),
			{Name: "registro_id", Type: TypeInteger, Rules: []v.Rule{v.Nullable()}},
			text("descripcion"),
			{Name: "valores_anteriores", Type: TypeJSON, Rules: []v.Rule{v.Nullable()}},
			{Name: "valores_nuevos", Type: TypeJSON, Rules: []v.Rule{v.Nullable()}},
			optStr("ip", 45),
			text("user_agent"),
		},
		Searchable:  []string{"accion", "tabla", "descripcion", "ip"},
		Filters:     join(intFilter("usuario_id", "registro_id"), strFilter("accion", "tabla")),
		Sortable:    []string{entity.ColumnID, entity.ColumnCreatedAt, "accion", "tabla"},
		DefaultSort: byNewest,
		ReadOnly:    true,
		ReadRoles:   []string{entity.RoleAdmin},
	}

	archivos := &Schema{
		Table: entity.TableFiles,
		Label: "archivo",
		Fields: []Field{
			str("nombre_original", v.Required(), v.MaxLength(255)),
			str("nombre_archivo", v.Required(), v.MaxLength(255)),
			str("ruta", v.Required(), v.MaxLength(500)),
			str("carpeta", v.Required(), v.In(entity.FolderImages, entity.FolderDocuments, entity.FolderSpreadsheets, entity.FolderOther)),
			optStr("tipo_mime", 150),
			{Name: "tamano", Type: TypeInteger, Rules: []v.Rule{v.Min(0)}, Default: int64(0)},
			fk("equipo_id", TableEquipment, false),
			text("descripcion"),
			owner(),
		},
		Searchable:  []string{"nombre_original", "descripcion"},
		Filters:     join(intFilter("equipo_id"), strFilter("carpeta")),
		Sortable:    sortable("nombre_original", "tamano"),
		DefaultSort: byNewest,
		OwnerColumn: "usuario_id",
		Relations: []Relation{
			{Name: "equipo", Column: "equipo_id", Table: TableEquipment},
		},
		Audited:  true,
		ReadOnly: true,
	}

	return NewRegistry(
		servicios, areas, propietarios, fabricantes, proveedores, tipos,
		equipos, mantenimientos, calibraciones, contingencias, correctivos,
		contactos, repuestos, usuarios, auditoria, archivos,
	)
}
