package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lingotube-backend/internal/domain/ports/repository"
	"lingotube-backend/internal/infra/logging"
	"lingotube-backend/internal/infra/metrics"
)

type Middleware func(http.Handler) http.Handler

func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := uuid.NewString()
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logging.With(r.Context(), logger)
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			metrics.ObserveHTTPLatency(r.Method, r.URL.Path, strconv.Itoa(ww.status), float64(elapsed.Milliseconds()))
			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", elapsed).
				Msg("http_request")
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type principalKey struct{}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID    string
	Superuser bool
}

// PrincipalFrom returns the caller attached by the auth middlewares, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// OptionalAuth attaches a principal when a valid bearer token is present and
// lets the request through either way. Paywall gating downstream decides
// what anonymous callers may see.
func OptionalAuth(tm *TokenManager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := BearerToken(r.Header.Get("Authorization")); tok != "" {
				if claims, err := tm.Parse(tok); err == nil {
					p := &Principal{UserID: claims.Subject, Superuser: claims.Superuser}
					ctx := context.WithValue(r.Context(), principalKey{}, p)
					ctx = logging.WithUserID(ctx, p.UserID)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(tm *TokenManager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := BearerToken(r.Header.Get("Authorization"))
			if tok == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := tm.Parse(tok)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			p := &Principal{UserID: claims.Subject, Superuser: claims.Superuser}
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			ctx = logging.WithUserID(ctx, p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperuser guards administrator-only routes. Must run inside
// RequireAuth. The claim alone is not trusted: the account is re-read so a
// deactivation or demotion takes effect before the token expires.
func RequireSuperuser(users repository.UserRepository) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p == nil || !p.Superuser {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			u, err := users.FindByID(r.Context(), repository.NoTX, p.UserID)
			if err != nil || !u.IsActive || !u.IsSuperuser {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
