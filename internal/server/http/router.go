package httpserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"secwatch/internal/service"
)

// Server wires the application services to the REST API.
type Server struct {
	auth           service.AuthService
	profiles       service.UserService
	log            *zap.Logger
	allowedOrigins []string
}

// New constructs the HTTP server facade.
func New(auth service.AuthService, profiles service.UserService, log *zap.Logger, allowedOrigins []string) *Server {
	return &Server{auth: auth, profiles: profiles, log: log, allowedOrigins: allowedOrigins}
}

// Handler builds the router with middleware and CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	users := r.PathPrefix("/users").Subrouter()
	users.Use(s.authenticate)
	users.HandleFunc("/me", s.handleGetProfile).Methods(http.MethodGet)
	users.HandleFunc("/me", s.handleUpdateProfile).Methods(http.MethodPut)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.authenticate)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/logs", s.handleListLogs).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return handlers.CORS(
		handlers.AllowedOrigins(s.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(r)
}
