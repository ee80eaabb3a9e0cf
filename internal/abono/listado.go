package abono

import (
	"strconv"
	"strings"

	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"
)

// Fila es un abono listado junto con el nombre y la cédula de su contrato.
// Nombre y Cedula quedan vacíos cuando el contrato no existe.
type Fila struct {
	IDAbono     int    `json:"id_abono"`
	IDContrato  int    `json:"id_contrato"`
	Nombre      string `json:"nombre"`
	Cedula      string `json:"cedula"`
	Fecha       string `json:"fecha"`
	Monto       string `json:"monto"`
	Observacion string `json:"observacion"`
}

// ConstruirFilas une abonos con contratos por ID (primer contrato que coincide).
func ConstruirFilas(abonos []contrato.Abono, contratos []contrato.Contrato) []Fila {
	porID := make(map[int]contrato.Contrato, len(contratos))
	for _, c := range contratos {
		if _, ok := porID[c.ID]; !ok {
			porID[c.ID] = c
		}
	}
	filas := make([]Fila, 0, len(abonos))
	for _, a := range abonos {
		c := porID[a.ContratoID]
		filas = append(filas, Fila{
			IDAbono:     a.ID,
			IDContrato:  a.ContratoID,
			Nombre:      c.Nombre,
			Cedula:      c.Cedula,
			Fecha:       a.Fecha.String(),
			Monto:       a.Monto.String(),
			Observacion: a.Observacion,
		})
	}
	return filas
}

// FiltroDesdeBusqueda interpreta la caja de búsqueda única: solo dígitos es
// un ID de contrato, cualquier otro texto es una cédula, vacío es sin filtro.
func FiltroDesdeBusqueda(clave string) contrato.FiltroAbonos {
	clave = strings.TrimSpace(clave)
	if clave == "" {
		return contrato.FiltroAbonos{}
	}
	if soloDigitos(clave) {
		if id, err := strconv.Atoi(clave); err == nil {
			return contrato.FiltroAbonos{ContratoID: id}
		}
	}
	return contrato.FiltroAbonos{Cedula: clave}
}

func soloDigitos(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
