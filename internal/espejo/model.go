package espejo

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContratoFila replica un contrato del documento JSON.
type ContratoFila struct {
	ID          int             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Nombre      string          `gorm:"size:200;not null" json:"nombre"`
	Cedula      string          `gorm:"size:50;not null;index" json:"cedula"`
	Direccion   string          `gorm:"size:255" json:"direccion"`
	Telefono    string          `gorm:"size:50" json:"telefono"`
	Plan        string          `gorm:"size:100;not null" json:"plan"`
	Mensualidad decimal.Decimal `gorm:"type:numeric;not null" json:"mensualidad"`
	FechaInicio *time.Time      `json:"fechaInicio"`
	Estado      string          `gorm:"size:20;not null;index" json:"estado"`
}

func (ContratoFila) TableName() string { return "contratos" }

// AfiliadoFila no tiene identidad en el documento; Orden conserva su posición.
type AfiliadoFila struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ContratoID int    `gorm:"not null;index" json:"contratoId"`
	Orden      int    `gorm:"not null" json:"orden"`
	Nombre     string `gorm:"size:100" json:"nombre"`
	Apellido   string `gorm:"size:100" json:"apellido"`
	Parentesco string `gorm:"size:50" json:"parentesco"`
	Telefono   string `gorm:"size:50" json:"telefono"`
}

func (AfiliadoFila) TableName() string { return "afiliados" }

// AbonoFila no declara clave foránea: el documento admite abonos huérfanos.
type AbonoFila struct {
	ID          int             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ContratoID  int             `gorm:"not null;index" json:"contratoId"`
	Fecha       time.Time       `gorm:"not null" json:"fecha"`
	Monto       decimal.Decimal `gorm:"type:numeric;not null" json:"monto"`
	Observacion string          `gorm:"size:500" json:"observacion"`
}

func (AbonoFila) TableName() string { return "abonos" }

// Migrate crea las tablas de la réplica.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ContratoFila{}, &AfiliadoFila{}, &AbonoFila{})
}
