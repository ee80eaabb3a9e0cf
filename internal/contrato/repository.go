package contrato

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/FunerariaCristoRey/api-contratos/internal/platform/logger"
)

// Repository es el almacén de contratos y abonos sobre un único archivo JSON.
//
// Cada operación lee el documento completo, lo modifica en memoria y lo
// reescribe entero; no hay caché. Toda mutación termina con un respaldo
// sincrónico del archivo en BackupDir.
type Repository struct {
	Archivo   string
	BackupDir string

	log   *logger.Logger
	ahora func() time.Time

	// serializa lectura-modificación-escritura dentro del proceso
	mu sync.Mutex
}

type Opcion func(*Repository)

func ConLogger(l *logger.Logger) Opcion {
	return func(r *Repository) { r.log = l }
}

// ConReloj reemplaza time.Now (fechas de abonos y nombres de respaldo).
func ConReloj(ahora func() time.Time) Opcion {
	return func(r *Repository) { r.ahora = ahora }
}

// NewRepository instancia un repositorio sobre archivo; no toca el disco.
func NewRepository(archivo, backupDir string, opts ...Opcion) *Repository {
	r := &Repository{
		Archivo:   archivo,
		BackupDir: backupDir,
		log:       logger.Nop(),
		ahora:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

/* ============================== Documento ============================== */

// Inicializar crea el documento vacío si no existe. Es idempotente.
func (r *Repository) Inicializar() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inicializar()
}

func (r *Repository) inicializar() error {
	_, err := os.Stat(r.Archivo)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(r.Archivo); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	r.log.Info("creando documento vacío", "archivo", r.Archivo)
	return r.guardar(&Documento{Contratos: []Contrato{}, Abonos: []Abono{}})
}

// CargarTodo lee y decodifica el documento completo.
func (r *Repository) CargarTodo() (*Documento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cargar()
}

func (r *Repository) cargar() (*Documento, error) {
	if err := r.inicializar(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Archivo)
	if err != nil {
		return nil, err
	}
	var doc Documento
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAlmacenCorrupto, r.Archivo, err)
	}
	if doc.Contratos == nil {
		doc.Contratos = []Contrato{}
	}
	if doc.Abonos == nil {
		doc.Abonos = []Abono{}
	}
	return &doc, nil
}

// GuardarTodo reescribe el documento completo.
func (r *Repository) GuardarTodo(doc *Documento) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guardar(doc)
}

// guardar escribe en un temporal del mismo directorio y lo renombra sobre
// el archivo, así ningún lector ve una escritura a medias.
func (r *Repository) guardar(doc *Documento) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.Archivo), ".contratos-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, r.Archivo)
}

// mutar carga, aplica fn, persiste y respalda. Si fn falla no se escribe nada.
// Un fallo del respaldo se devuelve, pero la mutación ya quedó guardada.
func (r *Repository) mutar(op string, fn func(doc *Documento) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.cargar()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := r.guardar(doc); err != nil {
		return fmt.Errorf("%s: guardar documento: %w", op, err)
	}
	ruta, err := r.backup()
	if err != nil {
		r.log.Error("respaldo fallido tras mutación", "op", op, "error", err)
		return fmt.Errorf("%s: respaldo: %w", op, err)
	}
	r.log.Info("documento actualizado", "op", op, "respaldo", ruta)
	return nil
}

// GenerarID devuelve 1 si ids está vacío, si no max(ids)+1.
// Solo es único porque los registros nunca se borran.
func GenerarID(ids []int) int {
	mayor := 0
	for _, id := range ids {
		if id > mayor {
			mayor = id
		}
	}
	return mayor + 1
}

/* ============================== Contratos ============================== */

// CrearContrato agrega un contrato nuevo en estado Activo y devuelve su ID.
func (r *Repository) CrearContrato(in NuevoContrato) (int, error) {
	var id int
	err := r.mutar("crear_contrato", func(doc *Documento) error {
		if in.IDManual != nil {
			for _, c := range doc.Contratos {
				if c.ID == *in.IDManual {
					return fmt.Errorf("%w: %d", ErrIDDuplicado, *in.IDManual)
				}
			}
			id = *in.IDManual
		} else {
			ids := make([]int, len(doc.Contratos))
			for i, c := range doc.Contratos {
				ids[i] = c.ID
			}
			id = GenerarID(ids)
		}

		mensualidad, err := ParseMonto(in.Mensualidad)
		if err != nil {
			return err
		}
		if mensualidad.IsNegative() {
			return fmt.Errorf("%w: mensualidad negativa %s", ErrMontoInvalido, mensualidad)
		}

		afiliados := in.Afiliados
		if afiliados == nil {
			afiliados = []Afiliado{}
		}
		doc.Contratos = append(doc.Contratos, Contrato{
			ID:          id,
			Nombre:      in.Nombre,
			Cedula:      in.Cedula,
			Direccion:   in.Direccion,
			Telefono:    in.Telefono,
			Plan:        in.Plan,
			Mensualidad: mensualidad,
			FechaInicio: in.FechaInicio,
			Estado:      EstadoActivo,
			Afiliados:   afiliados,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.Info("contrato creado", "id", id, "cedula", in.Cedula, "plan", in.Plan)
	return id, nil
}

// ListarContratos devuelve los contratos en orden del documento; si estado
// no es vacío, solo los que tienen ese estado.
func (r *Repository) ListarContratos(estado Estado) ([]Contrato, error) {
	doc, err := r.CargarTodo()
	if err != nil {
		return nil, err
	}
	if estado == "" {
		return doc.Contratos, nil
	}
	out := []Contrato{}
	for _, c := range doc.Contratos {
		if c.Estado == estado {
			out = append(out, c)
		}
	}
	return out, nil
}

// BuscarPorID devuelve el primer contrato con ese ID, o nil si no existe.
func (r *Repository) BuscarPorID(id int) (*Contrato, error) {
	doc, err := r.CargarTodo()
	if err != nil {
		return nil, err
	}
	for i := range doc.Contratos {
		if doc.Contratos[i].ID == id {
			return &doc.Contratos[i], nil
		}
	}
	return nil, nil
}

// BuscarPorCedula compara exacto, distinguiendo mayúsculas.
func (r *Repository) BuscarPorCedula(cedula string) ([]Contrato, error) {
	doc, err := r.CargarTodo()
	if err != nil {
		return nil, err
	}
	out := []Contrato{}
	for _, c := range doc.Contratos {
		if c.Cedula == cedula {
			out = append(out, c)
		}
	}
	return out, nil
}

// EditarContrato sobrescribe en el contrato los campos presentes en cambios.
func (r *Repository) EditarContrato(id int, cambios CambiosContrato) error {
	var cedula string
	err := r.mutar("editar_contrato", func(doc *Documento) error {
		c := buscar(doc, id)
		if c == nil {
			return fmt.Errorf("%w: %d", ErrNoEncontrado, id)
		}
		if cambios.Mensualidad != nil && cambios.Mensualidad.IsNegative() {
			return fmt.Errorf("%w: mensualidad negativa %s", ErrMontoInvalido, cambios.Mensualidad)
		}
		if cambios.Estado != nil && !cambios.Estado.Valido() {
			return fmt.Errorf("%w: %q", ErrEstadoInvalido, *cambios.Estado)
		}
		aplicar(c, cambios)
		cedula = c.Cedula
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("contrato editado", "id", id, "cedula", cedula)
	return nil
}

func aplicar(c *Contrato, cambios CambiosContrato) {
	if cambios.Nombre != nil {
		c.Nombre = *cambios.Nombre
	}
	if cambios.Cedula != nil {
		c.Cedula = *cambios.Cedula
	}
	if cambios.Direccion != nil {
		c.Direccion = *cambios.Direccion
	}
	if cambios.Telefono != nil {
		c.Telefono = *cambios.Telefono
	}
	if cambios.Plan != nil {
		c.Plan = *cambios.Plan
	}
	if cambios.Mensualidad != nil {
		c.Mensualidad = *cambios.Mensualidad
	}
	if cambios.FechaInicio != nil {
		c.FechaInicio = *cambios.FechaInicio
	}
	if cambios.Estado != nil {
		c.Estado = *cambios.Estado
	}
	if cambios.Afiliados != nil {
		afiliados := *cambios.Afiliados
		if afiliados == nil {
			afiliados = []Afiliado{}
		}
		c.Afiliados = afiliados
	}
}

// CambiarEstado no restringe transiciones; repetir el estado actual también
// persiste y respalda.
func (r *Repository) CambiarEstado(id int, estado Estado) error {
	if !estado.Valido() {
		return fmt.Errorf("%w: %q", ErrEstadoInvalido, estado)
	}
	return r.mutar("cambiar_estado", func(doc *Documento) error {
		c := buscar(doc, id)
		if c == nil {
			return fmt.Errorf("%w: %d", ErrNoEncontrado, id)
		}
		c.Estado = estado
		return nil
	})
}

func buscar(doc *Documento, id int) *Contrato {
	for i := range doc.Contratos {
		if doc.Contratos[i].ID == id {
			return &doc.Contratos[i]
		}
	}
	return nil
}

/* ============================== Abonos ============================== */

// AgregarAbono registra un pago con la hora actual y devuelve su ID.
// No verifica que contratoID exista.
func (r *Repository) AgregarAbono(contratoID int, monto any, observacion string) (int, error) {
	valor, err := ParseMonto(monto)
	if err != nil {
		return 0, err
	}
	if !valor.IsPositive() {
		return 0, fmt.Errorf("%w: el abono debe ser mayor que cero", ErrMontoInvalido)
	}

	var id int
	err = r.mutar("agregar_abono", func(doc *Documento) error {
		ids := make([]int, len(doc.Abonos))
		for i, a := range doc.Abonos {
			ids[i] = a.ID
		}
		id = GenerarID(ids)
		doc.Abonos = append(doc.Abonos, Abono{
			ID:          id,
			ContratoID:  contratoID,
			Fecha:       NuevaFechaHora(r.ahora()),
			Monto:       valor,
			Observacion: observacion,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListarAbonos aplica f. Con Cedula se usa el primer contrato que coincida;
// si ninguno coincide el resultado es vacío.
func (r *Repository) ListarAbonos(f FiltroAbonos) ([]Abono, error) {
	doc, err := r.CargarTodo()
	if err != nil {
		return nil, err
	}

	contratoID := f.ContratoID
	if contratoID <= 0 {
		if f.Cedula == "" {
			return doc.Abonos, nil
		}
		encontrado := false
		for _, c := range doc.Contratos {
			if c.Cedula == f.Cedula {
				contratoID, encontrado = c.ID, true
				break
			}
		}
		if !encontrado {
			return []Abono{}, nil
		}
	}

	out := []Abono{}
	for _, a := range doc.Abonos {
		if a.ContratoID == contratoID {
			out = append(out, a)
		}
	}
	return out, nil
}
