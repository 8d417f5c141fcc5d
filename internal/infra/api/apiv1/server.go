package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/ports/repository"
	"lingotube-backend/internal/infra/api"
	"lingotube-backend/internal/usecase"
)

// Server wires the credential and playback routes to their use cases.
type Server struct {
	authUC       usecase.AuthUseCase
	activationUC usecase.ActivationUseCase
	playbackUC   usecase.PlaybackUseCase
	users        repository.UserRepository
	tokens       *api.TokenManager
	log          *zerolog.Logger
}

func NewServer(
	authUC usecase.AuthUseCase,
	activationUC usecase.ActivationUseCase,
	playbackUC usecase.PlaybackUseCase,
	users repository.UserRepository,
	tokens *api.TokenManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		authUC:       authUC,
		activationUC: activationUC,
		playbackUC:   playbackUC,
		users:        users,
		tokens:       tokens,
		log:          logger,
	}
}

// Router builds the versioned API router with the middleware chain applied.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(api.TraceID())
	r.Use(api.RequestLog(s.log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/sms/send", s.handleSMSSend)
		r.Post("/auth/sms/verify", s.handleSMSVerify)
		r.Post("/activation/verify", s.handleActivationVerify)
		r.Post("/activation/register", s.handleActivationRegister)

		r.Group(func(r chi.Router) {
			r.Use(api.RequireAuth(s.tokens))
			r.Use(api.RequireSuperuser(s.users))
			r.Post("/activation/generate", s.handleActivationGenerate)
		})

		r.Group(func(r chi.Router) {
			r.Use(api.OptionalAuth(s.tokens))
			r.Get("/vod/psign", s.handlePSign)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// ===== request/response shapes =====

type smsSendRequest struct {
	Phone string `json:"phone"`
}

type smsSendResponse struct {
	Sent bool   `json:"sent"`
	Code string `json:"code,omitempty"` // sandbox only
}

type smsVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type activationVerifyRequest struct {
	Code string `json:"code"`
}

type activationVerifyResponse struct {
	PreToken  string    `json:"pre_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type activationRegisterRequest struct {
	PreToken string `json:"pre_token"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type activationGenerateRequest struct {
	Count         int `json:"count"`
	ExpiresInDays int `json:"expires_in_days,omitempty"`
}

type activationGenerateResponse struct {
	Codes     []string   `json:"codes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ===== handlers =====

func (s *Server) handleSMSSend(w http.ResponseWriter, r *http.Request) {
	var req smsSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	code, err := s.authUC.SendCode(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	// SendCode returns the plaintext only in sandbox mode; outside it the
	// code went through the gateway and this stays empty.
	writeJSON(w, http.StatusOK, smsSendResponse{Sent: true, Code: code})
}

func (s *Server) handleSMSVerify(w http.ResponseWriter, r *http.Request) {
	var req smsVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	_, token, err := s.authUC.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleActivationVerify(w http.ResponseWriter, r *http.Request) {
	var req activationVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	preToken, expiresAt, err := s.activationUC.Verify(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activationVerifyResponse{PreToken: preToken, ExpiresAt: expiresAt})
}

func (s *Server) handleActivationRegister(w http.ResponseWriter, r *http.Request) {
	var req activationRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	_, token, err := s.activationUC.Register(r.Context(), req.PreToken, req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleActivationGenerate(w http.ResponseWriter, r *http.Request) {
	var req activationGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	codes, expiresAt, err := s.activationUC.Generate(r.Context(), req.Count, req.ExpiresInDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activationGenerateResponse{Codes: codes, ExpiresAt: expiresAt})
}

func (s *Server) handlePSign(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")
	authenticated := api.PrincipalFrom(r.Context()) != nil

	ticket, err := s.playbackUC.PSign(r.Context(), fileID, authenticated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ===== helpers =====

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeError maps domain sentinels to status codes and stable user-facing
// messages. Internal causes never leak into the response body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := "internal error"

	switch {
	case errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrUsernameInvalid),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrMissingFileID),
		errors.Is(err, domain.ErrInvalidOTP),
		errors.Is(err, domain.ErrOTPExpired),
		errors.Is(err, domain.ErrTooManyAttempts),
		errors.Is(err, domain.ErrCodeNotFound),
		errors.Is(err, domain.ErrCodeAlreadyUsed),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrSessionInvalid),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusBadRequest
		detail = sentinelMessage(err)
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
		detail = domain.ErrRateLimited.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		detail = domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		detail = "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		detail = domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrUserDisabled):
		status = http.StatusForbidden
		detail = domain.ErrUserDisabled.Error()
	case errors.Is(err, domain.ErrSMSDispatch):
		status = http.StatusInternalServerError
		detail = domain.ErrSMSDispatch.Error()
	case errors.Is(err, domain.ErrMisconfigured):
		status = http.StatusInternalServerError
		detail = domain.ErrMisconfigured.Error()
	case errors.Is(err, domain.ErrGenerationExhausted):
		status = http.StatusInternalServerError
		detail = domain.ErrGenerationExhausted.Error()
	}

	writeJSON(w, status, errorResponse{Detail: detail})
}

// sentinelMessage strips wrapping so only the sentinel's stable text goes out.
func sentinelMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrInvalidPhone, domain.ErrUsernameInvalid, domain.ErrPasswordTooShort,
		domain.ErrMissingFileID, domain.ErrInvalidOTP, domain.ErrOTPExpired,
		domain.ErrTooManyAttempts, domain.ErrCodeNotFound, domain.ErrCodeAlreadyUsed,
		domain.ErrCodeExpired, domain.ErrSessionInvalid, domain.ErrSessionExpired,
		domain.ErrUsernameTaken, domain.ErrEmailTaken, domain.ErrInvalidArgument,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "invalid request"
}
