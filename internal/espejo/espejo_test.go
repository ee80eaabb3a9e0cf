package espejo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupEspejo(t *testing.T) *Espejo {
	t.Helper()
	// base en memoria por test para no mezclar datos entre tests
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Abrir(dsn)
	require.NoError(t, err)
	e, err := New(db, nil)
	require.NoError(t, err)
	return e
}

func setupRepo(t *testing.T) *contrato.Repository {
	t.Helper()
	dir := t.TempDir()
	return contrato.NewRepository(filepath.Join(dir, "contratos.json"), filepath.Join(dir, "backups"))
}

func TestEsPostgres(t *testing.T) {
	require.True(t, esPostgres("postgres://u:p@localhost:5432/db"))
	require.True(t, esPostgres("postgresql://localhost/db"))
	require.True(t, esPostgres("host=localhost user=postgres dbname=espejo port=5432 sslmode=disable"))
	require.False(t, esPostgres("espejo.db"))
	require.False(t, esPostgres("file::memory:?cache=shared"))
}

func TestSincronizarReplicaDocumento(t *testing.T) {
	e := setupEspejo(t)
	repo := setupRepo(t)

	id, err := repo.CrearContrato(contrato.NuevoContrato{
		Nombre: "Ana Ruiz", Cedula: "52000111", Plan: "Plan Oro", Mensualidad: "50000.50",
		Afiliados: []contrato.Afiliado{
			{Nombre: "Luis", Apellido: "Ruiz", Parentesco: "Hijo"},
			{Nombre: "Eva", Apellido: "Ruiz", Parentesco: "Hija"},
		},
	})
	require.NoError(t, err)
	_, err = repo.AgregarAbono(id, 20000, "cuota")
	require.NoError(t, err)
	_, err = repo.AgregarAbono(99, 100, "huérfano")
	require.NoError(t, err)

	doc, err := repo.CargarTodo()
	require.NoError(t, err)
	res, err := e.Sincronizar(doc)
	require.NoError(t, err)
	require.Equal(t, 1, res.Contratos)
	require.Equal(t, 2, res.Afiliados)
	require.Equal(t, 2, res.Abonos)

	var c ContratoFila
	require.NoError(t, e.DB.First(&c, id).Error)
	require.Equal(t, "Ana Ruiz", c.Nombre)
	require.Equal(t, "Activo", c.Estado)
	require.True(t, decimal.RequireFromString("50000.5").Equal(c.Mensualidad))

	var afiliados []AfiliadoFila
	require.NoError(t, e.DB.Where("contrato_id = ?", id).Order("orden ASC").Find(&afiliados).Error)
	require.Len(t, afiliados, 2)
	require.Equal(t, "Luis", afiliados[0].Nombre)
	require.Equal(t, 2, afiliados[1].Orden)

	var huerfano AbonoFila
	require.NoError(t, e.DB.Where("contrato_id = ?", 99).First(&huerfano).Error)
	require.Equal(t, "huérfano", huerfano.Observacion)
}

func TestSincronizarReemplazaContenido(t *testing.T) {
	e := setupEspejo(t)
	repo := setupRepo(t)

	_, err := repo.CrearContrato(contrato.NuevoContrato{Nombre: "A", Cedula: "1", Plan: "P", Mensualidad: 1,
		Afiliados: []contrato.Afiliado{{Nombre: "X", Apellido: "Y"}}})
	require.NoError(t, err)
	doc, err := repo.CargarTodo()
	require.NoError(t, err)
	_, err = e.Sincronizar(doc)
	require.NoError(t, err)

	require.NoError(t, repo.EditarContrato(1, contrato.CambiosContrato{Afiliados: &[]contrato.Afiliado{}}))
	require.NoError(t, repo.CambiarEstado(1, contrato.EstadoCancelado))
	doc, err = repo.CargarTodo()
	require.NoError(t, err)
	_, err = e.Sincronizar(doc)
	require.NoError(t, err)

	var n int64
	require.NoError(t, e.DB.Model(&AfiliadoFila{}).Count(&n).Error)
	require.Equal(t, int64(0), n)
	require.NoError(t, e.DB.Model(&ContratoFila{}).Count(&n).Error)
	require.Equal(t, int64(1), n)
	var c ContratoFila
	require.NoError(t, e.DB.First(&c, 1).Error)
	require.Equal(t, "Cancelado", c.Estado)
}

func TestSincronizarConservaMontosEIDs(t *testing.T) {
	e := setupEspejo(t)
	repo := setupRepo(t)

	id, err := repo.CrearContrato(contrato.NuevoContrato{Nombre: "A", Cedula: "1", Plan: "P", Mensualidad: "12345.678"})
	require.NoError(t, err)
	abonoID, err := repo.AgregarAbono(id, "0.125", "")
	require.NoError(t, err)
	doc, err := repo.CargarTodo()
	require.NoError(t, err)
	_, err = e.Sincronizar(doc)
	require.NoError(t, err)

	var c ContratoFila
	require.NoError(t, e.DB.First(&c, id).Error)
	require.Equal(t, id, c.ID)
	require.True(t, decimal.RequireFromString("12345.678").Equal(c.Mensualidad), c.Mensualidad.String())

	var a AbonoFila
	require.NoError(t, e.DB.First(&a, abonoID).Error)
	require.Equal(t, id, a.ContratoID)
	require.True(t, decimal.RequireFromString("0.125").Equal(a.Monto), a.Monto.String())
}

func TestSincronizarDocumentoVacio(t *testing.T) {
	e := setupEspejo(t)
	res, err := e.Sincronizar(&contrato.Documento{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Contratos+res.Afiliados+res.Abonos)
}

func TestHandlerSincronizar(t *testing.T) {
	e := setupEspejo(t)
	repo := setupRepo(t)
	_, err := repo.AgregarAbono(1, 5, "")
	require.NoError(t, err)

	h := NewHandler(repo, e)
	w := httptest.NewRecorder()
	h.Sincronizar(w, httptest.NewRequest("POST", "/espejo/sincronizar", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res Resumen
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 1, res.Abonos)
}
