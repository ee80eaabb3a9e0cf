package contrato

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	prefijoBackup   = "backup_CristoRey_"
	extensionBackup = ".json"
	formatoBackup   = "20060102_150405"
)

// Backup copia el documento a BackupDir como backup_CristoRey_YYYYMMDD_HHMMSS.json
// y devuelve la ruta absoluta de la copia, o "" si el documento aún no existe.
// Los respaldos nunca se rotan ni se borran.
func (r *Repository) Backup() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backup()
}

func (r *Repository) backup() (string, error) {
	origen, err := os.Open(r.Archivo)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer origen.Close()

	info, err := origen.Stat()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.BackupDir, 0o755); err != nil {
		return "", err
	}

	destino, f, err := r.crearDestino()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, origen); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	// conserva la fecha de modificación del original
	if err := os.Chtimes(destino, info.ModTime(), info.ModTime()); err != nil {
		return "", err
	}
	return filepath.Abs(destino)
}

// crearDestino abre un archivo de respaldo nuevo. Dos respaldos en el mismo
// segundo no se pisan: el segundo recibe el sufijo _2, el siguiente _3, etc.
func (r *Repository) crearDestino() (string, *os.File, error) {
	sello := r.ahora().Format(formatoBackup)
	for n := 1; ; n++ {
		nombre := prefijoBackup + sello + extensionBackup
		if n > 1 {
			nombre = fmt.Sprintf("%s%s_%d%s", prefijoBackup, sello, n, extensionBackup)
		}
		destino := filepath.Join(r.BackupDir, nombre)
		f, err := os.OpenFile(destino, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return destino, f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", nil, err
		}
	}
}
