package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/nomina-hr/nomina-backend-go/internal/config"
	"github.com/nomina-hr/nomina-backend-go/internal/handler/http/middleware"
	"github.com/nomina-hr/nomina-backend-go/internal/handler/http/response"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/jwt"
	"github.com/unrolled/secure"
)

func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	fileHandler FileHandler,
	metrics *Metrics,
) *chi.Mux {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !cfg.IsProduction(),
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(secureMiddleware.Handler)
	r.Use(metrics.Middleware)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication and a company-bound token
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireCompany)

			r.Get("/files/*", fileHandler.Download)

			r.Route("/payroll", func(r chi.Router) {

				r.Get("/settings", payrollHandler.GetRateSettings)
				r.Get("/components", payrollHandler.ListComponents)
				r.Get("/components/{id}", payrollHandler.GetComponent)
				r.Get("/employees/{employeeId}/components", payrollHandler.GetEmployeeComponents)
				r.Get("/records", payrollHandler.ListPayrollRecords)
				r.Get("/records/{id}", payrollHandler.GetPayrollRecord)
				r.Get("/summary", payrollHandler.GetPayrollSummary)

				r.With(
					httprate.Limit(cfg.RateLimit.CalculateRequestsPerMinute, time.Minute,
						httprate.WithKeyFuncs(httprate.KeyByIP),
					),
				).Post("/calculate", payrollHandler.CalculateDraft)

				// Manager or owner only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)

					r.Put("/settings", payrollHandler.UpdateRateSettings)

					r.Post("/components", payrollHandler.CreateComponent)
					r.Put("/components/{id}", payrollHandler.UpdateComponent)
					r.Delete("/components/{id}", payrollHandler.DeleteComponent)

					r.Post("/employees/{employeeId}/components", payrollHandler.AssignComponent)
					r.Put("/employee-components/{id}", payrollHandler.UpdateEmployeeComponent)
					r.Delete("/employee-components/{id}", payrollHandler.RemoveEmployeeComponent)

					r.Post("/generate", payrollHandler.GeneratePayroll)
					r.Put("/records/{id}", payrollHandler.UpdatePayrollRecord)
					r.Delete("/records/{id}", payrollHandler.DeletePayrollRecord)
					r.Post("/finalize", payrollHandler.FinalizePayroll)
					r.Post("/records/{id}/payslip", payrollHandler.GeneratePayslip)

					r.Get("/reports/tax-withholding", payrollHandler.ExportTaxReport)
				})
			})
		})
	})
	return r
}
