package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/leave-approval-go/internal/config"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, leaveHandler LeaveHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "leave-approval"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// The stream authenticates with a short-lived query token
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/leave", func(r chi.Router) {
				r.Route("/types", func(r chi.Router) {
					r.Get("/", leaveHandler.ListLeaveTypes)
					r.Get("/{id}", leaveHandler.GetLeaveType)
				})

				r.Route("/requests", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Post("/", leaveHandler.Submit)
					r.Get("/my", leaveHandler.GetMyRequests)
					r.Get("/approved", leaveHandler.GetMyApprovedRequests)
					r.Get("/history", leaveHandler.GetMyRequests)
					r.Get("/dashboard", leaveHandler.Dashboard)
					r.Get("/{id}", leaveHandler.GetRequest)
					r.Post("/{id}/cancel", leaveHandler.Cancel)
				})

				r.Route("/approvals", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveApprove))
					r.Get("/pending", leaveHandler.PendingApprovals)
					r.Put("/{id}/approve", leaveHandler.Approve)
					r.Put("/{id}/reject", leaveHandler.Reject)
				})

				r.Route("/balances", func(r chi.Router) {
					r.Get("/my", leaveHandler.GetMyBalances)
					r.Get("/summary", leaveHandler.GetBalanceSummary)
					r.Get("/{employeeID}/{leaveTypeID}", leaveHandler.GetBalance)
				})

				// HR and admin
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionEntitlementManage))

					r.Route("/entitlements", func(r chi.Router) {
						r.Post("/", leaveHandler.SetEntitlement)
						r.Post("/employees/{employeeID}", leaveHandler.SetEmployeeEntitlements)
						r.Get("/types/{leaveTypeID}/summary", leaveHandler.EntitlementSummary)
						r.Get("/roles", leaveHandler.RoleEntitlements)
						r.Get("/roles/{role}/summary", leaveHandler.RoleEntitlementSummary)
					})

					r.Route("/grades/{gradeID}", func(r chi.Router) {
						r.Post("/entitlements", leaveHandler.BulkSetGradeEntitlements)
						r.Post("/apply", leaveHandler.ApplyGradeEntitlements)
					})
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Put("/read", notificationHandler.MarkAsRead)
				r.Put("/read-all", notificationHandler.MarkAllAsRead)
				r.Post("/sse-token", notificationHandler.GetSSEToken)
			})
		})
	})
	return r
}
