package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shoplight/prodsearch/internal/search"
)

type searchResponse struct {
	Total   uint64        `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Items   []search.Item `json:"items"`
}

type autocompleteResponse struct {
	Suggestions []string `json:"suggestions"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleSearch handles GET /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query parameter 'q' is required")
		return
	}

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "validation_failed", "page must be a positive integer")
		return
	}

	perPage, err := intParam(q.Get("per_page"), s.settings.Search.DefaultPerPage)
	if err != nil || perPage < 1 || perPage > s.settings.Search.MaxPerPage {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"per_page must be between 1 and "+strconv.Itoa(s.settings.Search.MaxPerPage))
		return
	}

	fuzzy := true
	if raw := q.Get("fuzzy"); raw != "" {
		fuzzy, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "fuzzy must be a boolean")
			return
		}
	}

	filters := search.Filters{
		Brand:    listParam(q["brand"]),
		Category: listParam(q["category"]),
		Color:    listParam(q["color"]),
		Size:     listParam(q["size"]),
	}
	if raw := q.Get("in_stock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "in_stock must be a boolean")
			return
		}
		filters.InStock = &v
	}
	if filters.PriceMin, err = floatParam(q.Get("price_min")); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "price_min must be a non-negative number")
		return
	}
	if filters.PriceMax, err = floatParam(q.Get("price_max")); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "price_max must be a non-negative number")
		return
	}

	result, err := s.engine.Search(r.Context(), query, filters, page, perPage, fuzzy)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "validation_failed", "query has no searchable terms")
			return
		}
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Total:   result.Total,
		Page:    page,
		PerPage: perPage,
		Items:   result.Items,
	})
}

// handleAutocomplete handles GET /autocomplete.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")

	limit, err := intParam(r.URL.Query().Get("limit"), s.settings.Search.AutocompleteLimit)
	if err != nil || limit < 1 || limit > s.settings.Search.MaxPerPage {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"limit must be between 1 and "+strconv.Itoa(s.settings.Search.MaxPerPage))
		return
	}

	suggestions, err := s.engine.Autocomplete(r.Context(), prefix, limit)
	if err != nil {
		s.logger.Error("autocomplete failed", zap.String("prefix", prefix), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, autocompleteResponse{Suggestions: suggestions})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listParam flattens repeated parameters and comma-separated values into one
// list, dropping blanks.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func floatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.New("invalid number: " + raw)
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
