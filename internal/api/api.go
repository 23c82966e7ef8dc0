package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/config"
	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Bank is the service the HTTP layer drives.
type Bank interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	Accounts(ctx context.Context, userID int64) ([]models.Account, error)
	Transactions(ctx context.Context, userID, accountID int64) ([]models.Transaction, error)
	Transfer(ctx context.Context, t models.Transfer) error
}

type APIServer struct {
	config    *config.Config
	logger    *slog.Logger
	server    *http.Server
	bank      Bank
	jwtSecret []byte
	validate  *validator.Validate
}

func New(config *config.Config, logger *slog.Logger, bank Bank) *APIServer {
	s := &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:              config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		bank:      bank,
		jwtSecret: []byte(config.Auth.JWTSecret),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}

	s.configureRouter()

	return s
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("addr", s.server.Addr))

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

// Handler is the fully wired router.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()
	router.Use(s.recoverer, s.requestLogger, s.cors)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	api := router.PathPrefix(s.config.ApiPrefix).Subrouter()
	api.Use(mux.CORSMethodMiddleware(api), preflight)

	api.HandleFunc("/health", s.healthHandler()).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/auth/register", s.registerHandler()).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/login", s.loginHandler()).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/profile", s.authenticate(s.profileHandler())).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/accounts", s.authenticate(s.accountsHandler())).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/accounts/{id}/transactions", s.authenticate(s.transactionsHandler())).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/transfer", s.authenticate(s.transferHandler())).Methods(http.MethodPost, http.MethodOptions)

	if dir := s.config.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			s.logger.Warn("Static directory not found, not serving client", slog.String("dir", dir))
		} else {
			router.PathPrefix("/").Handler(http.FileServer(http.Dir(dir))).Methods(http.MethodGet, http.MethodHead)
		}
	}

	s.server.Handler = router
}
