// Package debug serves operator-only diagnostics. Nothing here is mounted
// unless DEBUG_ENDPOINTS is enabled.
package debug

import (
	"net/http"

	"autoblog/internal/config"
	"autoblog/internal/handler/http/respond"
)

// ConfigSource yields the settings to display.
type ConfigSource interface {
	Entries() []config.Entry
}

// ConfigHandler serves GET /debug/config with secrets reduced to their first
// and last four characters.
type ConfigHandler struct {
	Source ConfigSource
}

// ConfigResponse is the JSON body of /debug/config.
type ConfigResponse struct {
	Config map[string]string `json:"config"`
	Masked []string          `json:"masked"`
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries := h.Source.Entries()
	out := ConfigResponse{
		Config: make(map[string]string, len(entries)),
		Masked: []string{},
	}
	for _, e := range entries {
		v := e.Value
		if e.Secret {
			v = respond.MaskSecret(v)
			out.Masked = append(out.Masked, e.Key)
		}
		if v == "" {
			v = "(not set)"
		}
		out.Config[e.Key] = v
	}
	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, out)
}

// Register mounts the debug routes when enabled.
func Register(mux *http.ServeMux, enabled bool, src ConfigSource) {
	if !enabled {
		return
	}
	mux.Handle("GET /debug/config", &ConfigHandler{Source: src})
}
