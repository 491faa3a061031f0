package api

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"todo-app/middleware"
	"todo-app/system"
	"todo-app/ws"
)

type Deps struct {
	Handler *system.Handler
	Hub     *ws.Hub
	// Limiter applies to authenticated API calls, AuthLimiter to the public
	// auth endpoints. Either may have a nil Redis client, which disables it.
	Limiter        *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter
	ResendLimiter  *middleware.RateLimiter
	AllowedOrigins []string
	Log            *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	h := d.Handler
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(middleware.Logging(log), middleware.Metrics)

	//  Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/ws", middleware.JWTMiddleware(d.Hub.Handler()))

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.Use(d.AuthLimiter.Middleware)
	auth.HandleFunc("/register", h.Register).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/verify-email", h.VerifyEmail).Methods("POST")
	resend := http.Handler(http.HandlerFunc(h.ResendVerification))
	if d.ResendLimiter != nil {
		resend = d.ResendLimiter.Middleware(resend)
	}
	auth.Handle("/resend-verification", resend).Methods("POST")
	auth.Handle("/me", middleware.JWTMiddleware(http.HandlerFunc(h.Me))).Methods("GET")

	//  Protected routes
	s := r.PathPrefix("/api").Subrouter()
	s.Use(middleware.JWTMiddleware, d.Limiter.Middleware)
	s.HandleFunc("/tasks", h.GetAllTasks).Methods("GET")
	s.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	s.HandleFunc("/tasks/due", h.GetDueTasks).Methods("GET")
	s.HandleFunc("/tasks/completed", h.DeleteCompletedTasks).Methods("DELETE")
	s.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods("GET")
	s.HandleFunc("/tasks/{id:[0-9]+}", h.UpdateTask).Methods("PUT")
	s.HandleFunc("/tasks/{id:[0-9]+}", h.DeleteTask).Methods("DELETE")
	s.HandleFunc("/notifications", h.GetNotifications).Methods("GET")
	s.HandleFunc("/rate-limit", system.RateLimitStatusHandler(d.Limiter)).Methods("GET")

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.ExposedHeaders([]string{"X-Rate-Limit-Remaining", "X-Rate-Limit-Reset", middleware.RequestIDHeader}),
	)
	return cors(r)
}
