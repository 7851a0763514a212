package httpapi

import (
	"errors"
	"net/http"
	"time"

	"notes-app/backend/internal/auth"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	Token string `json:"token"`
}

// authErrorCodes maps service errors to stable API error codes. The status
// is chosen per endpoint.
var authErrorCodes = []struct {
	err  error
	code string
}{
	{auth.ErrInvalidInput, "invalid_input"},
	{auth.ErrAccountExists, "account_exists"},
	{auth.ErrAccountNotFound, "account_not_found"},
	{auth.ErrInvalidCredentials, "invalid_credentials"},
	{auth.ErrInvalidOTP, "invalid_otp"},
	{auth.ErrOTPExpired, "otp_expired"},
	{auth.ErrEmailDeliveryFailed, "email_delivery_failed"},
	{auth.ErrFederatedTokenInvalid, "invalid_google_token"},
	{auth.ErrNotVerified, "not_verified"},
	{auth.ErrUseFederatedLogin, "use_google_login"},
}

// writeAuthError answers known service errors with status and everything
// else with 500.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, status int, err error) {
	for _, e := range authErrorCodes {
		if errors.Is(err, e.err) {
			writeError(w, status, e.code, e.err.Error())
			return
		}
	}
	s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "request_id", requestIDFromContext(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acc, err := s.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeAuthError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.accounts.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		s.writeAuthError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeAuthError(w, r, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	var req googleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.accounts.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		s.writeAuthError(w, r, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
		return
	}

	acc, err := s.accounts.Profile(r.Context(), accountIDFromContext(r.Context()))
	if err != nil {
		s.writeAuthError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
