package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bioauth/internal/domain"
	"bioauth/internal/dto"
	"bioauth/internal/jwtsigner"
	"bioauth/internal/netutil"
	"bioauth/internal/observability/middleware"
	"bioauth/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	CORSOrigins    []string
	RateLimitPerIP int
}

// NewRouter wires the pairing and login API. Payload decode errors and
// sentinel service errors map to stable statuses with generic bodies; detail
// stays in the logs.
func NewRouter(svc *service.Service, signer *jwtsigner.Signer, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if opts.RateLimitPerIP > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerIP, 1*time.Minute))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.WithRequestLogging)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "OK",
				"message": "bioauth server running",
			})
		})

		r.Get("/jwks", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"keys": []any{signer.PublicJWK()},
			})
		})

		r.Post("/register", handleRegister(svc))
		r.Post("/enroll", handleEnroll(svc))

		r.Route("/pairing", func(r chi.Router) {
			r.Get("/qr", handleQR(svc))
			r.Post("/confirm", handleConfirm(svc))
			r.Post("/complete", handleComplete(svc))
			r.Get("/status", handleStatus(svc))
		})

		r.Post("/login", handleLogin(svc))
		r.Post("/login-recovery", handleRecoveryLogin(svc))
	})

	return r
}

func handleRegister(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, service.ErrInvalidRequest)
			return
		}
		res, err := svc.Register(r.Context(), req)
		if err != nil {
			if errors.Is(err, domain.ErrUsernameTaken) {
				// Mirrors the browser contract: duplicate usernames answer
				// 200 with success:false rather than an error status.
				writeJSON(w, http.StatusOK, dto.RegisterResponse{
					Success: false,
					Message: "Username already registered.",
				})
				return
			}
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleEnroll(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.EnrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, service.ErrInvalidRequest)
			return
		}
		res, err := svc.Enroll(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleQR(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.IssueQR(r.Context(), r.URL.Query().Get("username"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleConfirm(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, service.ErrInvalidRequest)
			return
		}
		res, err := svc.ConfirmDevice(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleComplete(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, service.ErrInvalidRequest)
			return
		}
		res, err := svc.CompletePairing(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleStatus(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Status(r.Context(), r.URL.Query().Get("username"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleLogin(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, service.ErrInvalidRequest)
			return
		}
		res, err := svc.Login(r.Context(), req, netutil.ClientIP(r), r.UserAgent())
		if err != nil {
			writeLoginError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleRecoveryLogin(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.RecoveryLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, service.ErrInvalidRequest)
			return
		}
		res, err := svc.RecoveryLogin(r.Context(), req, netutil.ClientIP(r), r.UserAgent())
		if err != nil {
			writeLoginError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// statusFor maps service failures to stable statuses. Unknown errors are 500s
// and never echo internal detail to the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrNotEnrolled):
		return http.StatusBadRequest, "user has no biometric enrolled"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, "invalid or expired pairing token"
	case errors.Is(err, domain.ErrDeviceNotRegistered):
		return http.StatusBadRequest, "device not registered for this user"
	case errors.Is(err, domain.ErrNotPaired):
		return http.StatusUnauthorized, "no paired device"
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusUnauthorized, "invalid code"
	case errors.Is(err, service.ErrEncryptionFailed):
		return http.StatusInternalServerError, "pairing failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	} else {
		slog.Warn("request rejected",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeLoginError keeps the login contract: failures carry success:false and
// a message field rather than an error field.
func writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("login failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, status, dto.LoginResponse{Success: false, Message: "login failed"})
		return
	}
	slog.Warn("login rejected",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, status, dto.LoginResponse{Success: false, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func originsIfSet(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
