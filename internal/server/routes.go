package server

import (
	"net/http"
)

// NewMux wires every endpoint of h.
func NewMux(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/catalog", h.HandleCatalog)
	mux.HandleFunc("PUT /api/rules/{id}", h.HandleSetRule)
	mux.HandleFunc("POST /api/run", h.HandleRun)
	mux.HandleFunc("GET /ws", h.HandleWS)

	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
