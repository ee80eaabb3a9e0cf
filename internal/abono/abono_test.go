package abono

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mux.Router, *contrato.Repository) {
	t.Helper()
	dir := t.TempDir()
	ahora := time.Date(2026, 10, 16, 10, 0, 0, 0, time.Local)
	repo := contrato.NewRepository(
		filepath.Join(dir, "contratos.json"),
		filepath.Join(dir, "backups"),
		contrato.ConReloj(func() time.Time { return ahora }),
	)
	h := NewHandler(repo)
	r := mux.NewRouter()
	r.HandleFunc("/contratos/{id}/abonos", h.Registrar).Methods("POST")
	r.HandleFunc("/abonos", h.Listar).Methods("GET")
	r.HandleFunc("/abonos/export.csv", h.ExportarCSV).Methods("GET")
	return r, repo
}

func httpDo(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func crear(t *testing.T, repo *contrato.Repository, nombre, cedula string) int {
	t.Helper()
	id, err := repo.CrearContrato(contrato.NuevoContrato{Nombre: nombre, Cedula: cedula, Plan: "Plan Oro", Mensualidad: 50000})
	require.NoError(t, err)
	return id
}

func TestRegistrarYListarAbonos(t *testing.T) {
	r, repo := setupRouter(t)
	ana := crear(t, repo, "Ana Ruiz", "52000111")

	w := httpDo(r, "POST", "/contratos/1/abonos", map[string]interface{}{"monto": 20000, "observacion": "cuota octubre"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var creado map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &creado))
	require.Equal(t, 1, creado["id"])

	// contrato inexistente: se acepta igual
	w = httpDo(r, "POST", "/contratos/42/abonos", map[string]interface{}{"monto": "1500.25"})
	require.Equal(t, http.StatusCreated, w.Code)

	var filas []Fila
	w = httpDo(r, "GET", "/abonos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filas))
	require.Len(t, filas, 2)
	require.Equal(t, Fila{IDAbono: 1, IDContrato: ana, Nombre: "Ana Ruiz", Cedula: "52000111",
		Fecha: "2026-10-16 10:00:00", Monto: "20000", Observacion: "cuota octubre"}, filas[0])
	require.Equal(t, "", filas[1].Nombre)
	require.Equal(t, 42, filas[1].IDContrato)

	w = httpDo(r, "GET", "/abonos?contrato_id=42", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filas))
	require.Len(t, filas, 1)
	require.Equal(t, "1500.25", filas[0].Monto)

	w = httpDo(r, "GET", "/abonos?cedula=52000111", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filas))
	require.Len(t, filas, 1)
	require.Equal(t, 1, filas[0].IDAbono)

	w = httpDo(r, "GET", "/abonos?contrato_id=x", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrarAbonoMontoInvalido(t *testing.T) {
	r, repo := setupRouter(t)
	crear(t, repo, "Ana", "1")

	for _, monto := range []interface{}{"veinte", 0, -10, nil} {
		w := httpDo(r, "POST", "/contratos/1/abonos", map[string]interface{}{"monto": monto})
		require.Equal(t, http.StatusBadRequest, w.Code, "monto %v", monto)
	}
	w := httpDo(r, "POST", "/contratos/uno/abonos", map[string]interface{}{"monto": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	list, err := repo.ListarAbonos(contrato.FiltroAbonos{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRegistrarAbonoContratoNoPositivo(t *testing.T) {
	r, repo := setupRouter(t)
	crear(t, repo, "Ana", "1")

	for _, ruta := range []string{"/contratos/0/abonos", "/contratos/-5/abonos"} {
		w := httpDo(r, "POST", ruta, map[string]interface{}{"monto": 100})
		require.Equal(t, http.StatusBadRequest, w.Code, ruta)
	}
	list, err := repo.ListarAbonos(contrato.FiltroAbonos{})
	require.NoError(t, err)
	require.Empty(t, list)

	w := httpDo(r, "GET", "/abonos?contrato_id=-5", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = httpDo(r, "GET", "/abonos/export.csv?contrato_id=0", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFiltroDesdeBusqueda(t *testing.T) {
	require.Equal(t, contrato.FiltroAbonos{}, FiltroDesdeBusqueda("  "))
	require.Equal(t, contrato.FiltroAbonos{ContratoID: 12}, FiltroDesdeBusqueda("12"))
	require.Equal(t, contrato.FiltroAbonos{Cedula: "CC-12"}, FiltroDesdeBusqueda(" CC-12 "))
	require.Equal(t, contrato.FiltroAbonos{Cedula: "-3"}, FiltroDesdeBusqueda("-3"))
}

func TestBuscarPorCajaUnica(t *testing.T) {
	r, repo := setupRouter(t)
	a := crear(t, repo, "A", "AB-1")
	b := crear(t, repo, "B", "2")
	_, err := repo.AgregarAbono(a, 1, "")
	require.NoError(t, err)
	_, err = repo.AgregarAbono(b, 2, "")
	require.NoError(t, err)

	var filas []Fila
	w := httpDo(r, "GET", "/abonos?buscar=AB-1", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filas))
	require.Len(t, filas, 1)
	require.Equal(t, a, filas[0].IDContrato)

	w = httpDo(r, "GET", "/abonos?buscar=2", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filas))
	require.Len(t, filas, 1)
	require.Equal(t, b, filas[0].IDContrato)
}

func TestExportarCSV(t *testing.T) {
	r, repo := setupRouter(t)
	id := crear(t, repo, "José, \"Pepe\" Núñez", "99")
	_, err := repo.AgregarAbono(id, decimal.RequireFromString("35000.5"), "abono parcial")
	require.NoError(t, err)

	w := httpDo(r, "GET", "/abonos/export.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	recs, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"ID Abono", "ID Contrato", "Nombre", "Cédula", "Fecha", "Monto", "Observación"},
		{"1", "1", "José, \"Pepe\" Núñez", "99", "2026-10-16 10:00:00", "35000.5", "abono parcial"},
	}, recs)
}

func TestEscribirCSVSoloEncabezado(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EscribirCSV(&buf, nil))
	require.Equal(t, "ID Abono,ID Contrato,Nombre,Cédula,Fecha,Monto,Observación\n", buf.String())
}
