package espejo

import (
	"net/http"

	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"
)

type Handler struct {
	Repo   *contrato.Repository
	Espejo *Espejo
}

func NewHandler(repo *contrato.Repository, e *Espejo) *Handler {
	return &Handler{Repo: repo, Espejo: e}
}

// POST /espejo/sincronizar
func (h *Handler) Sincronizar(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Repo.CargarTodo()
	if err != nil {
		contrato.EscribirError(w, err)
		return
	}
	res, err := h.Espejo.Sincronizar(doc)
	if err != nil {
		http.Error(w, "Error al sincronizar la réplica", http.StatusInternalServerError)
		return
	}
	contrato.EscribirJSON(w, http.StatusOK, res)
}
