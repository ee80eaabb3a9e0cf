package contrato

import "errors"

var (
	// ErrAlmacenCorrupto indica que el documento no es JSON válido.
	ErrAlmacenCorrupto = errors.New("documento de contratos corrupto")

	// ErrIDDuplicado se devuelve cuando el ID manual ya pertenece a otro contrato.
	ErrIDDuplicado = errors.New("el ID ya existe")

	ErrNoEncontrado = errors.New("contrato no encontrado")

	// ErrMontoInvalido cubre montos no numéricos, negativos o (en abonos) cero.
	ErrMontoInvalido = errors.New("monto inválido")

	ErrEstadoInvalido = errors.New("estado inválido")
)
