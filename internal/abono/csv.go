package abono

import (
	"encoding/csv"
	"io"
	"strconv"
)

var encabezadoCSV = []string{"ID Abono", "ID Contrato", "Nombre", "Cédula", "Fecha", "Monto", "Observación"}

// EscribirCSV exporta un listado de abonos tal como se muestra.
func EscribirCSV(w io.Writer, filas []Fila) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(encabezadoCSV); err != nil {
		return err
	}
	for _, f := range filas {
		rec := []string{
			strconv.Itoa(f.IDAbono),
			strconv.Itoa(f.IDContrato),
			f.Nombre,
			f.Cedula,
			f.Fecha,
			f.Monto,
			f.Observacion,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
