package espejo

import (
	"fmt"
	"strings"
	"time"

	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"
	"github.com/FunerariaCristoRey/api-contratos/internal/platform/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Espejo replica el documento JSON en una base relacional para reportes.
// Es de solo lectura para el resto del sistema: el JSON sigue siendo la fuente.
type Espejo struct {
	DB  *gorm.DB
	log *logger.Logger
}

// Resumen cuenta lo escrito en una sincronización.
type Resumen struct {
	Contratos    int       `json:"contratos"`
	Afiliados    int       `json:"afiliados"`
	Abonos       int       `json:"abonos"`
	Sincronizado time.Time `json:"sincronizado"`
}

// Abrir elige el driver por el DSN: postgres para URLs postgres:// o DSN
// con "host=", sqlite para cualquier otra cosa (ruta de archivo o file:...).
func Abrir(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Error)}
	if esPostgres(dsn) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

func esPostgres(dsn string) bool {
	d := strings.TrimSpace(dsn)
	return strings.HasPrefix(d, "postgres://") ||
		strings.HasPrefix(d, "postgresql://") ||
		strings.Contains(d, "host=")
}

// New migra las tablas y devuelve el espejo listo.
func New(db *gorm.DB, log *logger.Logger) (*Espejo, error) {
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrar espejo: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Espejo{DB: db, log: log}, nil
}

// Sincronizar reemplaza el contenido de las tablas por el del documento,
// dentro de una sola transacción.
func (e *Espejo) Sincronizar(doc *contrato.Documento) (Resumen, error) {
	contratos, afiliados, abonos := filas(doc)

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		for _, modelo := range []interface{}{&AbonoFila{}, &AfiliadoFila{}, &ContratoFila{}} {
			if err := tx.Where("1 = 1").Delete(modelo).Error; err != nil {
				return err
			}
		}
		if len(contratos) > 0 {
			if err := tx.CreateInBatches(contratos, 200).Error; err != nil {
				return err
			}
		}
		if len(afiliados) > 0 {
			if err := tx.CreateInBatches(afiliados, 200).Error; err != nil {
				return err
			}
		}
		if len(abonos) > 0 {
			if err := tx.CreateInBatches(abonos, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Resumen{}, fmt.Errorf("sincronizar espejo: %w", err)
	}

	res := Resumen{
		Contratos:    len(contratos),
		Afiliados:    len(afiliados),
		Abonos:       len(abonos),
		Sincronizado: time.Now(),
	}
	e.log.Info("espejo sincronizado", "contratos", res.Contratos, "afiliados", res.Afiliados, "abonos", res.Abonos)
	return res, nil
}

func filas(doc *contrato.Documento) ([]ContratoFila, []AfiliadoFila, []AbonoFila) {
	contratos := make([]ContratoFila, 0, len(doc.Contratos))
	var afiliados []AfiliadoFila
	for _, c := range doc.Contratos {
		fila := ContratoFila{
			ID:          c.ID,
			Nombre:      c.Nombre,
			Cedula:      c.Cedula,
			Direccion:   c.Direccion,
			Telefono:    c.Telefono,
			Plan:        c.Plan,
			Mensualidad: c.Mensualidad,
			Estado:      string(c.Estado),
		}
		if !c.FechaInicio.IsZero() {
			f := c.FechaInicio.Time
			fila.FechaInicio = &f
		}
		contratos = append(contratos, fila)
		for i, a := range c.Afiliados {
			afiliados = append(afiliados, AfiliadoFila{
				ContratoID: c.ID,
				Orden:      i + 1,
				Nombre:     a.Nombre,
				Apellido:   a.Apellido,
				Parentesco: a.Parentesco,
				Telefono:   a.Telefono,
			})
		}
	}
	abonos := make([]AbonoFila, 0, len(doc.Abonos))
	for _, a := range doc.Abonos {
		abonos = append(abonos, AbonoFila{
			ID:          a.ID,
			ContratoID:  a.ContratoID,
			Fecha:       a.Fecha.Time,
			Monto:       a.Monto,
			Observacion: a.Observacion,
		})
	}
	return contratos, afiliados, abonos
}
