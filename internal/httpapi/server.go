package httpapi

import (
	"context"
	"net/http"

	"notes-app/backend/internal/auth"
	"notes-app/backend/internal/config"
	"notes-app/backend/internal/logging"
	"notes-app/backend/internal/model"
)

// AccountService is the account lifecycle behind the auth endpoints.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (model.PublicAccount, error)
	VerifyOTP(ctx context.Context, email, code string) (auth.Result, error)
	Login(ctx context.Context, email, password string) (auth.Result, error)
	GoogleLogin(ctx context.Context, idToken string) (auth.Result, error)
	Profile(ctx context.Context, accountID string) (model.PublicAccount, error)
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Server struct {
	cfg      config.Config
	accounts AccountService
	tokens   TokenVerifier
	log      logging.Logger
	mux      *http.ServeMux
}

func NewServer(cfg config.Config, accounts AccountService, tokens TokenVerifier, log logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		log:      log.With("component", "http"),
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = authMiddleware(s.tokens, h)
	h = recoverMiddleware(s.log, h)
	h = loggingMiddleware(s.log, h)
	h = requestIDMiddleware(h)
	h = corsMiddleware(s.cfg.FrontendURL, h)
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/verify-otp", s.handleVerifyOTP)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/google", s.handleGoogle)

	s.mux.HandleFunc("/api/users/profile", s.handleProfile)
}
