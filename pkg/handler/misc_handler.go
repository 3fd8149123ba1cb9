// Handler for miscellaneous endpoints such as health check

package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/orthologs/logger"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

func (sctx *SearchContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Health:    "ok",
		Store:     "ok",
		Timestamp: time.Now(),
	}
	status := http.StatusOK

	if err := sctx.Store.Ping(ctx); err != nil {
		logger.Warn("Store ping failed", zap.Error(err))
		response.Health = "degraded"
		response.Store = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}
