package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/catalog"
	"github.com/DoyleJ11/veto-backend/internal/hub"
	"github.com/DoyleJ11/veto-backend/internal/ratelimit"
	"github.com/DoyleJ11/veto-backend/internal/veto"
	"github.com/DoyleJ11/veto-backend/internal/ws"
)

type Deps struct {
	Veto        *veto.Service
	Catalog     *catalog.Service
	Hub         *hub.Hub
	Limiter     *ratelimit.KeyedRateLimiter // nil disables rate limiting
	CORSOrigins []string
	Log         *zap.Logger
}

type api struct {
	veto      *veto.Service
	catalog   *catalog.Service
	hub       *hub.Hub
	validator *Validator
	log       *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	a := &api{
		veto:      d.Veto,
		catalog:   d.Catalog,
		hub:       d.Hub,
		validator: NewValidator(),
		log:       log.Named("http"),
	}

	limit := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limit = rateLimit(d.Limiter)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StripSlashes)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Veto, d.CORSOrigins, log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.health)

		r.Route("/series", func(r chi.Router) {
			r.Get("/", a.listSeries)
			r.With(limit).Post("/", a.createSeries)
			r.Get("/code/{code}", a.getSeriesByCode)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getSeries)
				r.Get("/state", a.seriesState)

				r.Group(func(r chi.Router) {
					r.Use(limit)
					r.Delete("/", a.deleteSeries)
					r.Post("/assign_roles", a.assignRoles())
					r.Post("/confirm_tsd", a.confirmFormat())
					r.Post("/ban_objective_combo", a.banObjectiveCombo())
					r.Post("/ban_slayer_map", a.banSlayerMap())
					r.Post("/pick_objective_combo", a.pickObjectiveCombo())
					r.Post("/pick_slayer_map", a.pickSlayerMap())
					r.Post("/undo", a.undo())
					r.Post("/reset", a.reset())
				})
			})
		})

		r.Route("/maps", func(r chi.Router) {
			r.Get("/", a.listMaps)
			r.Get("/combos", a.listCombos)
			r.Get("/combos/grouped", a.groupedCombos)
			r.Get("/{id}", a.getMap)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/", a.createMap)
				r.Patch("/{id}", a.patchMap)
				r.Put("/{id}", a.putMap)
				r.Delete("/{id}", a.deleteMap)
			})
		})

		r.Route("/gamemodes", func(r chi.Router) {
			r.Get("/", a.listModes)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/", a.createMode)
				r.Patch("/{id}", a.patchMode)
				r.Delete("/{id}", a.deleteMode)
			})
		})
	})
	return r
}
