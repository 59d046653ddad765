package main

import (
	"net/http"

	"mediacatalog/metrics"
	"mediacatalog/middleware"

	"github.com/gorilla/mux"
)

// mediaBasePaths are the prefixes the CRUD routes are mounted under. /api/media
// is kept for clients written against the older base path.
var mediaBasePaths = []string{"/media", "/api/media"}

// routes builds the full HTTP handler: router plus middleware chain.
func (app *App) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/test-connection", app.testConnectionHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	for _, base := range mediaBasePaths {
		r.HandleFunc(base, app.listMediaHandler).Methods(http.MethodGet)
		r.HandleFunc(base, app.createMediaHandler).Methods(http.MethodPost)
		r.HandleFunc(base+"/{id}", app.getMediaHandler).Methods(http.MethodGet)
		r.HandleFunc(base+"/{id}", app.updateMediaHandler).Methods(http.MethodPut)
		r.HandleFunc(base+"/{id}", app.deleteMediaHandler).Methods(http.MethodDelete)
	}

	r.NotFoundHandler = middleware.Metrics(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "Not found")
	}))
	r.MethodNotAllowedHandler = middleware.Metrics(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "Method not allowed")
	}))

	return middleware.RequestID(middleware.AccessLog(middleware.CORS()(r)))
}
