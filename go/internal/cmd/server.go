package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/wordbingo/go/internal/admin"
	"github.com/mcdev12/wordbingo/go/internal/health"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: setupHandler(cfg, services),
	}
}

// setupHandler builds the HTTP surface behind CORS and cleartext HTTP/2.
func setupHandler(cfg *Config, services *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Game socket. Long lived, so no handler timeout.
	services.Gateway.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.AdminTimeout))
		registerAdmin(r, services)
		r.Method(http.MethodGet, "/health/ready", services.Health)
		r.Method(http.MethodGet, "/metrics", health.NewExporter(services.Health))
	})

	setupHealthCheck(r)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	return h2c.NewHandler(c.Handler(r), &http2.Server{})
}

func registerAdmin(r chi.Router, services *Services) {
	path, handler := admin.NewHandler(services.Admin)
	r.Handle(path+"*", handler)
	log.Info().Str("path", path).Msg("admin service registered")
}

func setupHealthCheck(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
