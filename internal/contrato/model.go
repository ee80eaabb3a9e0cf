package contrato

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// El documento guarda montos como números JSON (50000, no "50000").
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxAfiliados es el tope de afiliados por contrato. Solo lo aplica la
// capa HTTP; el Repository acepta cualquier cantidad.
const MaxAfiliados = 10

// Estado del contrato. Cualquier estado puede pasar a cualquier otro.
type Estado string

const (
	EstadoActivo     Estado = "Activo"
	EstadoSuspendido Estado = "Suspendido"
	EstadoCancelado  Estado = "Cancelado"
)

// Valido indica si e es uno de los tres estados conocidos.
func (e Estado) Valido() bool {
	switch e {
	case EstadoActivo, EstadoSuspendido, EstadoCancelado:
		return true
	}
	return false
}

// Afiliado es un dependiente embebido en el contrato, sin identidad propia.
type Afiliado struct {
	Nombre     string `json:"nombre"`
	Apellido   string `json:"apellido"`
	Parentesco string `json:"parentesco"`
	Telefono   string `json:"telefono"`
}

// Contrato de afiliación funeraria.
type Contrato struct {
	ID          int             `json:"id"`
	Nombre      string          `json:"nombre"`
	Cedula      string          `json:"cedula"`
	Direccion   string          `json:"direccion"`
	Telefono    string          `json:"telefono"`
	Plan        string          `json:"plan"`
	Mensualidad decimal.Decimal `json:"mensualidad"`
	FechaInicio Fecha           `json:"fecha_inicio"`
	Estado      Estado          `json:"estado"`
	Afiliados   []Afiliado      `json:"afiliados"`
}

// Abono es un pago registrado contra un contrato. Es inmutable.
type Abono struct {
	ID          int             `json:"id"`
	ContratoID  int             `json:"contrato_id"`
	Fecha       FechaHora       `json:"fecha"`
	Monto       decimal.Decimal `json:"monto"`
	Observacion string          `json:"observacion"`
}

// Documento es la raíz del archivo JSON.
type Documento struct {
	Contratos []Contrato `json:"contratos"`
	Abonos    []Abono    `json:"abonos"`
}

// NuevoContrato agrupa los datos de CrearContrato.
// Mensualidad se convierte con ParseMonto.
type NuevoContrato struct {
	IDManual    *int
	Nombre      string
	Cedula      string
	Direccion   string
	Telefono    string
	Plan        string
	Mensualidad any
	FechaInicio Fecha
	Afiliados   []Afiliado
}

// CambiosContrato es un parche parcial: solo se aplican los campos no nil.
type CambiosContrato struct {
	Nombre      *string          `json:"nombre,omitempty"`
	Cedula      *string          `json:"cedula,omitempty"`
	Direccion   *string          `json:"direccion,omitempty"`
	Telefono    *string          `json:"telefono,omitempty"`
	Plan        *string          `json:"plan,omitempty"`
	Mensualidad *decimal.Decimal `json:"mensualidad,omitempty"`
	FechaInicio *Fecha           `json:"fecha_inicio,omitempty"`
	Estado      *Estado          `json:"estado,omitempty"`
	Afiliados   *[]Afiliado      `json:"afiliados,omitempty"`
}

// FiltroAbonos selecciona abonos. ContratoID (> 0) tiene prioridad sobre Cedula.
type FiltroAbonos struct {
	ContratoID int
	Cedula     string
}

const (
	formatoFecha     = "2006-01-02"
	formatoFechaHora = "2006-01-02 15:04:05"
)

// Fecha es un día calendario, serializado como YYYY-MM-DD.
type Fecha struct {
	time.Time
}

// NuevaFecha trunca t al día.
func NuevaFecha(t time.Time) Fecha {
	y, m, d := t.Date()
	return Fecha{time.Date(y, m, d, 0, 0, 0, 0, time.Local)}
}

// ParseFecha interpreta s en formato YYYY-MM-DD.
func ParseFecha(s string) (Fecha, error) {
	t, err := time.ParseInLocation(formatoFecha, strings.TrimSpace(s), time.Local)
	if err != nil {
		return Fecha{}, fmt.Errorf("fecha inválida %q: %w", s, err)
	}
	return Fecha{t}, nil
}

func (f Fecha) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Format(formatoFecha)
}

func (f Fecha) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*f = Fecha{}
		return nil
	}
	v, err := ParseFecha(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// FechaHora es fecha y hora con resolución de segundos (YYYY-MM-DD HH:MM:SS).
type FechaHora struct {
	time.Time
}

// NuevaFechaHora trunca t al segundo.
func NuevaFechaHora(t time.Time) FechaHora {
	y, m, d := t.Date()
	return FechaHora{time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.Local)}
}

func (f FechaHora) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Format(formatoFechaHora)
}

func (f FechaHora) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *FechaHora) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*f = FechaHora{}
		return nil
	}
	t, err := time.ParseInLocation(formatoFechaHora, s, time.Local)
	if err != nil {
		return fmt.Errorf("fecha y hora inválida %q: %w", s, err)
	}
	*f = FechaHora{t}
	return nil
}
