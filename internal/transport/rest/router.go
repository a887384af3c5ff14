package rest

import (
	"feedbackbot/internal/logger"
	"feedbackbot/internal/service"
	"feedbackbot/internal/transport/rest/handler"
	"feedbackbot/internal/transport/rest/middleware"
	"feedbackbot/internal/transport/ws"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService  *service.AuthService
	QueryService handler.FeedbackQuerier
	WSHub        *ws.Hub
	Log          *logger.Logger

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService, c.Log)
	feedbackHandler := handler.NewFeedbackHandler(c.QueryService, c.Log)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Log)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))
	r.Use(requestLogger(c.Log))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	// token in query param
	v1.HandleFunc("/ws/feedback", wsHandler.FeedbackWS).Methods("GET")

	admin := r.PathPrefix("/admin/api").Subrouter()
	admin.Use(authMW.RequireAdmin)
	admin.HandleFunc("/feedbacks", feedbackHandler.List).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// websocket upgrades need the raw writer for hijacking
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}
