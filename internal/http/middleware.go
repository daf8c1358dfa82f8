package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionHeader     = "X-Session-ID"
	SessionCookie     = "sid"
	maxSessionIDBytes = 128
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	identityKey
	loggerKey
)

// RequestIDMiddleware echoes the request id chi assigned and makes it visible to the logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = r.Header.Get(middleware.RequestIDHeader)
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), requestID)
		w.Header().Set(middleware.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request and exposes a request-scoped logger to handlers.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := logger.WithContext(r.Context(), log)
			ctx := context.WithValue(r.Context(), loggerKey, reqLog)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLog.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// SessionMiddleware resolves the session id from the header or cookie, minting one when absent.
func SessionMiddleware(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(SessionHeader)
			if sessionID == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					sessionID = c.Value
				}
			}
			if sessionID == "" || len(sessionID) > maxSessionIDBytes {
				sessionID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(SessionHeader, sessionID)

			ctx := context.WithValue(r.Context(), sessionKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose session is not signed in.
func RequireAuth(auth Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.Current(getSessionID(r.Context()))
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthorized", "must be logged in")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionKey).(string); ok {
		return sessionID
	}
	return ""
}

func getIdentity(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(identity.Identity)
	return id, ok
}

func requestLogger(r *http.Request) *zap.Logger {
	if l, ok := r.Context().Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}
