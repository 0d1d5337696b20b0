// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router wires the HTTP routes. The surface is small: a health
// check and the stylesheet artifact route.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"themepress/internal/handlers"
	"themepress/internal/middleware"
)

// New creates the configured chi router.
func New(stylesheets *handlers.Stylesheets) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)
	r.Get("/stylesheets/{name}", stylesheets.Show)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
