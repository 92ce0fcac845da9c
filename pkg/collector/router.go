package collector

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the collector routes
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	router.Handle("/hit", h.RequireKey(http.HandlerFunc(h.HandleHit))).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.RequireKey)
	api.HandleFunc("/hits", h.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/hits", h.HandleClear).Methods(http.MethodDelete)
	api.HandleFunc("/ws", h.hub.ServeHTTP).Methods(http.MethodGet)

	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	return router
}
