package http

import (
	"net/http"

	"pairdiary/internal/auth"
	"pairdiary/internal/entry"
	"pairdiary/internal/http/handler"
	mw "pairdiary/internal/http/middleware"
	"pairdiary/internal/profile"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(svc *entry.Service, resolver *profile.Resolver, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	eh := &handler.EntryHandler{Svc: svc}
	sh := &handler.SchemaHandler{Svc: svc}
	ph := &handler.ProfileHandler{Resolver: resolver}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/entries", eh.List)
		r.Post("/entries", eh.Create)
		r.Patch("/entries/{pageId}", eh.Update)
		r.Delete("/entries/{pageId}", eh.Delete)

		r.Post("/databases/search", eh.SearchStores)
		r.Post("/schema/ensure", sh.Ensure)

		r.Get("/profile", ph.Get)
		r.Put("/profile/integration", ph.SaveIntegration)
	})

	return r
}
