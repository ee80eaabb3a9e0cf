package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Puerto       int
	ArchivoDB    string
	DirBackup    string
	OrigenesCORS []string
	// EspejoDSN vacío desactiva la réplica relacional.
	EspejoDSN string
	Entorno   string
}

// Load lee envFile (si existe) y luego el entorno. Las variables ya
// definidas en el entorno tienen prioridad sobre el archivo.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("leer %s: %w", envFile, err)
		}
	}

	puerto, err := entero("PORT", 8080)
	if err != nil {
		return nil, err
	}

	return &Config{
		Puerto:       puerto,
		ArchivoDB:    texto("DB_FILE", "contratos.json"),
		DirBackup:    texto("BACKUP_DIR", "backups"),
		OrigenesCORS: lista("CORS_ORIGINS", []string{"*"}),
		EspejoDSN:    texto("ESPEJO_DSN", ""),
		Entorno:      texto("APP_ENV", "development"),
	}, nil
}

func texto(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func entero(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return 0, fmt.Errorf("%s inválido: %q", name, v)
	}
	return i, nil
}

func lista(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
