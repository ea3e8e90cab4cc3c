package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
)

type OperatorService struct {
	DBManager database.DBManager
	logger    *slog.Logger
}

func NewOperatorService(dbManager database.DBManager, logger *slog.Logger) *OperatorService {
	return &OperatorService{DBManager: dbManager, logger: logger}
}

// SearchOperators decodes an OperatorFilter body and returns up to ten matching
// operators, most recently registered first. An empty filter matches everything.
func (h *OperatorService) SearchOperators(w http.ResponseWriter, r *http.Request) {
	var filter models.OperatorFilter
	if r.ContentLength != 0 {
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&filter); err != nil {
			http.Error(w, "Invalid search body. Expected JSON with registro_ans, cnpj, razao_social or cidade.", http.StatusBadRequest)
			return
		}
	}
	filter = trimFilter(filter)

	operators, err := h.DBManager.SearchOperators(r.Context(), filter)
	if err != nil {
		h.logger.Error("operator search failed", "error", err)
		http.Error(w, "Failed to search operators", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(operators); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func trimFilter(f models.OperatorFilter) models.OperatorFilter {
	return models.OperatorFilter{
		RegistroANS: strings.TrimSpace(f.RegistroANS),
		CNPJ:        strings.TrimSpace(f.CNPJ),
		RazaoSocial: strings.TrimSpace(f.RazaoSocial),
		Cidade:      strings.TrimSpace(f.Cidade),
	}
}
