package ui

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ReportsRouter serves generated HTML reports from the reports directory on
// a separate listener, so report downloads never contend with analysis
// traffic.
func ReportsRouter(dir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	fs := http.StripPrefix("/reports/", http.FileServer(http.Dir(dir)))
	r.Get("/reports/{file}", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}
