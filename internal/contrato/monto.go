package contrato

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMonto convierte v a decimal. Acepta números, json.Number, texto
// numérico y decimal.Decimal; cualquier otra cosa es ErrMontoInvalido.
func ParseMonto(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			break
		}
		return *x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			break
		}
		return decimal.NewFromFloat(x), nil
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			break
		}
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		return parseTexto(string(x))
	case string:
		return parseTexto(x)
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMontoInvalido, v)
}

func parseTexto(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMontoInvalido, s)
	}
	return d, nil
}
