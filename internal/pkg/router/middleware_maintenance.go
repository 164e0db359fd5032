package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/safex/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints, or for every non-public route when
// app.maintenance.enabled is set. Both keys are read per request so a
// config reload takes effect immediately.
func middlewareMaintenance(cfg config.Config, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil {
				next.ServeHTTP(w, r)
				return
			}

			route := matchedRoutePath(r)
			if _, ok := public[r.Method][route]; !ok && cfg.GetBool("app.maintenance.enabled") {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}

			for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
				if strings.TrimSpace(endpoint) == route {
					writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
