package abono

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"

	"github.com/gorilla/mux"
)

type Handler struct {
	Repo *contrato.Repository
}

func NewHandler(repo *contrato.Repository) *Handler {
	return &Handler{Repo: repo}
}

// DTO usado en POST /contratos/{id}/abonos
type registrarAbonoRequest struct {
	Monto       any    `json:"monto"`
	Observacion string `json:"observacion"`
}

var errFiltroInvalido = errors.New("filtro inválido")

// filtroDeQuery acepta ?buscar= (caja única) o ?contrato_id= y ?cedula=.
func filtroDeQuery(r *http.Request) (contrato.FiltroAbonos, error) {
	q := r.URL.Query()
	if q.Has("buscar") {
		return FiltroDesdeBusqueda(q.Get("buscar")), nil
	}
	f := contrato.FiltroAbonos{Cedula: strings.TrimSpace(q.Get("cedula"))}
	if v := q.Get("contrato_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("%w: contrato_id %q", errFiltroInvalido, v)
		}
		f.ContratoID = id
	}
	return f, nil
}

func (h *Handler) filas(r *http.Request) ([]Fila, error) {
	f, err := filtroDeQuery(r)
	if err != nil {
		return nil, err
	}
	abonos, err := h.Repo.ListarAbonos(f)
	if err != nil {
		return nil, err
	}
	contratos, err := h.Repo.ListarContratos("")
	if err != nil {
		return nil, err
	}
	return ConstruirFilas(abonos, contratos), nil
}

/* ============================== Endpoints ============================== */

// POST /contratos/{id}/abonos
func (h *Handler) Registrar(w http.ResponseWriter, r *http.Request) {
	contratoID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || contratoID <= 0 {
		http.Error(w, "ID de contrato inválido", http.StatusBadRequest)
		return
	}
	var in registrarAbonoRequest
	if err := contrato.DecodificarJSON(r, &in); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}
	id, err := h.Repo.AgregarAbono(contratoID, in.Monto, strings.TrimSpace(in.Observacion))
	if err != nil {
		contrato.EscribirError(w, err)
		return
	}
	contrato.EscribirJSON(w, http.StatusCreated, map[string]int{"id": id})
}

// GET /abonos
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	filas, err := h.filas(r)
	if err != nil {
		escribirErrorListado(w, err)
		return
	}
	contrato.EscribirJSON(w, http.StatusOK, filas)
}

// GET /abonos/export.csv
func (h *Handler) ExportarCSV(w http.ResponseWriter, r *http.Request) {
	filas, err := h.filas(r)
	if err != nil {
		escribirErrorListado(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="abonos.csv"`)
	if err := EscribirCSV(w, filas); err != nil {
		http.Error(w, "Error al exportar CSV", http.StatusInternalServerError)
	}
}

func escribirErrorListado(w http.ResponseWriter, err error) {
	if errors.Is(err, errFiltroInvalido) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	contrato.EscribirError(w, err)
}
