package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Store        store.DataStats   `json:"store"`
	Environment  string            `json:"environment"`
}

// Health reports degraded, still with 200, when a backing service is down;
// the snapshot store keeps serving from memory.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	deps := make(map[string]string, len(names))
	for _, name := range names {
		deps[name] = "ok"
		if err := h.checks[name](ctx); err != nil {
			deps[name] = "error"
			status = "degraded"
			h.log.Error().Err(err).Str("dependency", name).Msg("health check failed")
		}
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:       status,
		Dependencies: deps,
		Store:        h.store.Stats(),
		Environment:  h.cfg.Environment,
	})
}
