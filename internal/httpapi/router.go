package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"studiodesk/internal/adminaction"
	"studiodesk/internal/api"
	"studiodesk/internal/audit"
	"studiodesk/internal/client"
	"studiodesk/internal/document"
	"studiodesk/internal/events"
	"studiodesk/internal/payment"
	"studiodesk/internal/project"
	"studiodesk/internal/report"
	"studiodesk/internal/termin"
	"studiodesk/pkg/config"
	"studiodesk/pkg/session"
)

type Dependencies struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Log     *zap.Logger
	Limiter *api.RateLimiter
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(api.RequestLogger(deps.Log))
	r.Use(api.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	calc := termin.NewCalculator(decimal.NewFromInt(deps.Cfg.DesignDownPayment))
	clientRepo := client.NewRepository(deps.DB)
	projectRepo := project.NewRepository(deps.DB)
	documentRepo := document.NewRepository(deps.DB)

	clientHandlers := client.Handlers{Cfg: deps.Cfg, Repo: clientRepo}
	projectHandlers := project.Handlers{Cfg: deps.Cfg, DB: deps.DB, Repo: projectRepo}
	documentHandlers := document.Handlers{
		Cfg:       deps.Cfg,
		DB:        deps.DB,
		Docs:      documentRepo,
		Events:    events.NewRepository(deps.DB),
		Overrides: adminaction.NewRepository(deps.DB),
		Clients:   clientRepo,
		Projects:  projectRepo,
		Editor:    document.NewEditor(calc),
	}
	paymentHandlers := payment.Handlers{Cfg: deps.Cfg, DB: deps.DB}
	reportHandlers := report.Handlers{Cfg: deps.Cfg, Docs: documentRepo}
	auditHandlers := audit.Handlers{Cfg: deps.Cfg, Repo: audit.NewRepository(deps.DB)}

	staff := api.RequireRole(session.RoleStaff)
	admin := api.RequireRole(session.RoleAdmin)

	// v1
	r.Route("/v1", func(r chi.Router) {
		// The dashboard is served from its own origin.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.DashboardAllowedOrigins,
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID", "X-User-Email", "X-User-Role"},
			MaxAgeSeconds:  600,
		}))
		r.Use(api.SessionAuth(deps.Cfg))
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware)
		}

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientHandlers.List)
			r.Get("/{id}", clientHandlers.Get)
			r.With(staff).Post("/", clientHandlers.Create)
			r.With(staff).Put("/{id}", clientHandlers.Put)
			r.With(admin).Delete("/{id}", clientHandlers.Delete)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandlers.List)
			r.Get("/{id}", projectHandlers.Get)
			r.With(staff).Post("/", projectHandlers.Create)
			r.With(staff).Put("/{id}", projectHandlers.Put)
			r.With(admin).Delete("/{id}", projectHandlers.Delete)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", documentHandlers.List)
			r.With(staff).Post("/", documentHandlers.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", documentHandlers.Get)
				r.Get("/events", documentHandlers.Timeline)
				r.With(admin).Delete("/", documentHandlers.Delete)
				r.With(admin).Post("/admin/override", documentHandlers.AdminOverride)
				r.With(admin).Get("/admin/actions", documentHandlers.AdminActions)

				r.Group(func(r chi.Router) {
					r.Use(staff)
					r.Patch("/", documentHandlers.Patch)
					r.Put("/pricing", documentHandlers.PutPricing)
					r.Put("/category", documentHandlers.PutCategory)
					r.Patch("/status", documentHandlers.PatchStatus)
					r.Put("/active-termin", documentHandlers.PutActiveMilestone)

					// Termins
					r.Post("/termins", documentHandlers.AddMilestone)
					r.Post("/termins/reset", documentHandlers.ResetTemplate)
					r.Patch("/termins/{index}", documentHandlers.PatchMilestone)
					r.Delete("/termins/{index}", documentHandlers.RemoveMilestone)
					r.Patch("/termins/{index}/status", paymentHandlers.SetTerminStatus)
				})
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", reportHandlers.Revenue)
			r.Get("/revenue.xlsx", reportHandlers.RevenueXLSX)
			r.Get("/outstanding", reportHandlers.Outstanding)
		})

		r.With(admin).Get("/audit-logs", auditHandlers.List)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}
