package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/orthologs/logger"
	"github.com/yumyai/orthologs/pkg/handler/request"
	"github.com/yumyai/orthologs/pkg/model"
	"github.com/yumyai/orthologs/pkg/render"
)

type SearchPayload struct {
	Query string           `json:"query"`
	Count int              `json:"count"`
	Found bool             `json:"found"`
	Match *model.MatchPair `json:"match,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// search runs the planner under the request timeout and resolves the first
// candidate. A nil pair with a nil error means no results.
func (sctx *SearchContext) search(ctx context.Context, query string) (*model.MatchPair, int, error) {
	ctx, cancel := context.WithTimeout(ctx, sctx.QueryTimeout)
	defer cancel()

	records, err := sctx.Planner.Search(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	// Best match is whatever the store returned first.
	pair := model.Resolve(query, records[0])
	return &pair, len(records), nil
}

// Search page. GET / shows the empty form, GET /search?q= the result.
func (sctx *SearchContext) SearchPage(w http.ResponseWriter, r *http.Request) {

	req, err := request.ParseGeneSearchRequest(r)
	data := render.SearchPageData{Query: req.Query}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err != nil {
		logger.Warn("Rejected search", zap.String("url", r.URL.Path), zap.Error(err))
		data.Searched = true
		data.ErrorMessage = err.Error()
		w.WriteHeader(http.StatusBadRequest)
	} else if !req.IsEmpty() {
		logger.Info("Running searchpage",
			zap.String("searchterm", req.Query),
			zap.String("url", r.URL.Path))

		data.Searched = true
		pair, count, err := sctx.search(r.Context(), req.Query)
		if err != nil {
			logger.Error("Search failed",
				zap.String("searchterm", req.Query),
				zap.Error(err))
			data.ErrorMessage = err.Error()
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			data.Match = pair
			data.Count = count
		}
	}

	if err := render.RenderSearchPage(w, data); err != nil {
		logger.Error(err.Error())
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// SearchAPI answers GET /api/v1/search?q= with JSON.
func (sctx *SearchContext) SearchAPI(w http.ResponseWriter, r *http.Request) {

	req, err := request.ParseGeneSearchRequest(r)
	if err != nil {
		logger.Warn("Rejected search API request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	pair, count, err := sctx.search(r.Context(), req.Query)
	if err != nil {
		logger.Error("Search API failed",
			zap.String("searchterm", req.Query),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, SearchPayload{
		Query: req.Query,
		Count: count,
		Found: pair != nil,
		Match: pair,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
