// Package api serves rips over http.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/samber/do/v2"

	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

// defining all sub pathes for api v1
const (
	// APIVersion the actual implemented api version
	APIVersion = "1"
	// BaseURL prefix of all api routes
	BaseURL = "/api/v" + APIVersion
)

// APIRoutes the routes of the rip api and the health checks
func APIRoutes(inj do.Injector) (*chi.Mux, error) {
	rh, err := NewRipHandler(inj)
	if err != nil {
		return nil, err
	}
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	)
	router.Get("/livez", livez)
	router.Get("/readyz", readyz(inj))
	router.Route(BaseURL, func(r chi.Router) {
		r.Get("/rip", rh.Rip)
		r.Get("/info", rh.Info)
		r.Mount("/metrics", measurement.Routes(do.MustInvoke[*measurement.Service](inj)))
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, do.MustInvoke[config.Version](inj))
		})
	})
	return router, nil
}

func livez(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func readyz(inj do.Injector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := do.Invoke[*ripper.Ripper](inj); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "not ready"})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ready"})
	}
}
