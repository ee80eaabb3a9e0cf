package contrato

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// DTO usado en POST /contratos
type crearContratoRequest struct {
	ID          *int       `json:"id"`
	Nombre      string     `json:"nombre"`
	Cedula      string     `json:"cedula"`
	Direccion   string     `json:"direccion"`
	Telefono    string     `json:"telefono"`
	Plan        string     `json:"plan"`
	Mensualidad any        `json:"mensualidad"`
	FechaInicio *Fecha     `json:"fecha_inicio"`
	Afiliados   []Afiliado `json:"afiliados"`
}

/* ============================== Utilidades ============================== */

// EscribirError traduce los errores del repositorio a códigos HTTP.
func EscribirError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoEncontrado):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrIDDuplicado):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrMontoInvalido), errors.Is(err, ErrEstadoInvalido):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Error interno del almacén", http.StatusInternalServerError)
	}
}

// EscribirJSON responde con status y v codificado.
func EscribirJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodificarJSON usa json.Number para no perder precisión en montos.
func DecodificarJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// ValidarAfiliados aplica las reglas del formulario: máximo MaxAfiliados y
// nombre y apellido obligatorios.
func ValidarAfiliados(afiliados []Afiliado) error {
	if len(afiliados) > MaxAfiliados {
		return fmt.Errorf("máximo %d afiliados", MaxAfiliados)
	}
	for i, a := range afiliados {
		if strings.TrimSpace(a.Nombre) == "" || strings.TrimSpace(a.Apellido) == "" {
			return fmt.Errorf("afiliado %d: nombre y apellido obligatorios", i+1)
		}
	}
	return nil
}

func idDeRuta(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

/* ============================== Endpoints ============================== */

// GET /
func Bienvenida(w http.ResponseWriter, _ *http.Request) {
	EscribirJSON(w, http.StatusOK, map[string]string{"mensaje": "Bienvenido al backend de Funeraria Cristo Rey"})
}

// POST /contratos
func (h *Handler) CrearContrato(w http.ResponseWriter, r *http.Request) {
	var in crearContratoRequest
	if err := DecodificarJSON(r, &in); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}

	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Cedula = strings.TrimSpace(in.Cedula)
	in.Plan = strings.TrimSpace(in.Plan)
	if in.Nombre == "" || in.Cedula == "" || in.Plan == "" || in.Mensualidad == nil {
		http.Error(w, "Complete los campos obligatorios", http.StatusBadRequest)
		return
	}
	if in.ID != nil && *in.ID <= 0 {
		http.Error(w, "El ID manual debe ser un entero positivo", http.StatusBadRequest)
		return
	}
	if err := ValidarAfiliados(in.Afiliados); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fecha := NuevaFecha(time.Now())
	if in.FechaInicio != nil && !in.FechaInicio.IsZero() {
		fecha = *in.FechaInicio
	}

	id, err := h.Repo.CrearContrato(NuevoContrato{
		IDManual:    in.ID,
		Nombre:      in.Nombre,
		Cedula:      in.Cedula,
		Direccion:   strings.TrimSpace(in.Direccion),
		Telefono:    strings.TrimSpace(in.Telefono),
		Plan:        in.Plan,
		Mensualidad: in.Mensualidad,
		FechaInicio: fecha,
		Afiliados:   in.Afiliados,
	})
	if err != nil {
		EscribirError(w, err)
		return
	}
	EscribirJSON(w, http.StatusCreated, map[string]int{"id": id})
}

// GET /contratos?estado=Activo | GET /contratos?cedula=123
func (h *Handler) ListarContratos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if cedula := q.Get("cedula"); cedula != "" {
		list, err := h.Repo.BuscarPorCedula(cedula)
		if err != nil {
			EscribirError(w, err)
			return
		}
		EscribirJSON(w, http.StatusOK, list)
		return
	}

	estado := Estado(q.Get("estado"))
	if estado != "" && !estado.Valido() {
		http.Error(w, "Estado inválido. Use 'Activo', 'Suspendido' o 'Cancelado'.", http.StatusBadRequest)
		return
	}
	list, err := h.Repo.ListarContratos(estado)
	if err != nil {
		EscribirError(w, err)
		return
	}
	EscribirJSON(w, http.StatusOK, list)
}

// GET /contratos/{id}
func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r)
	if err != nil {
		http.Error(w, "ID de contrato inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Repo.BuscarPorID(id)
	if err != nil {
		EscribirError(w, err)
		return
	}
	if c == nil {
		http.Error(w, "Contrato no encontrado", http.StatusNotFound)
		return
	}
	EscribirJSON(w, http.StatusOK, c)
}

// PATCH /contratos/{id}
func (h *Handler) EditarContrato(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r)
	if err != nil {
		http.Error(w, "ID de contrato inválido", http.StatusBadRequest)
		return
	}

	// el ID no se puede parchear; un campo "id" se rechaza como desconocido
	var cambios CambiosContrato
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cambios); err != nil {
		http.Error(w, "JSON inválido: "+err.Error(), http.StatusBadRequest)
		return
	}

	for _, campo := range []*string{cambios.Nombre, cambios.Cedula, cambios.Plan} {
		if campo != nil && strings.TrimSpace(*campo) == "" {
			http.Error(w, "Nombre, cédula y plan no pueden quedar vacíos", http.StatusBadRequest)
			return
		}
	}
	if cambios.Afiliados != nil {
		if err := ValidarAfiliados(*cambios.Afiliados); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.Repo.EditarContrato(id, cambios); err != nil {
		EscribirError(w, err)
		return
	}
	c, err := h.Repo.BuscarPorID(id)
	if err != nil {
		EscribirError(w, err)
		return
	}
	EscribirJSON(w, http.StatusOK, c)
}

// PUT /contratos/{id}/estado
func (h *Handler) CambiarEstado(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r)
	if err != nil {
		http.Error(w, "ID de contrato inválido", http.StatusBadRequest)
		return
	}
	var payload struct {
		Estado Estado `json:"estado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}
	if err := h.Repo.CambiarEstado(id, payload.Estado); err != nil {
		EscribirError(w, err)
		return
	}
	EscribirJSON(w, http.StatusOK, map[string]any{"id": id, "estado": payload.Estado})
}

// POST /backup
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	ruta, err := h.Repo.Backup()
	if err != nil {
		http.Error(w, "No se pudo crear el respaldo", http.StatusInternalServerError)
		return
	}
	if ruta == "" {
		http.Error(w, "No existe el documento a respaldar", http.StatusNotFound)
		return
	}
	EscribirJSON(w, http.StatusCreated, map[string]string{"ruta": ruta})
}
