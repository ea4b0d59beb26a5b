package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hackgods/clinic-booking/internal/i18n"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	visitorIDKey contextKey = "visitor_id"
	resolverKey  contextKey = "resolver"
)

const (
	visitorHeader = "X-Visitor-ID"
	visitorCookie = "visitor_id"
)

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs method, path, status, duration and request ID.
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", GetRequestID(r.Context())),
			}
			if wrapped.statusCode >= http.StatusInternalServerError {
				logger.Error("http request", fields...)
				return
			}
			logger.Info("http request", fields...)
		})
	}
}

// VisitorMiddleware identifies the visitor by header or cookie, issuing a
// cookie on first contact, and attaches the visitor's language resolver.
func VisitorMiddleware(store i18n.PreferenceStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID := strings.TrimSpace(r.Header.Get(visitorHeader))
			if visitorID == "" {
				if c, err := r.Cookie(visitorCookie); err == nil {
					visitorID = c.Value
				}
			}
			if visitorID == "" {
				visitorID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     visitorCookie,
					Value:    visitorID,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(visitorHeader, visitorID)

			resolver := i18n.NewResolver(r.Context(), store, visitorID, logger)
			ctx := context.WithValue(r.Context(), visitorIDKey, visitorID)
			ctx = context.WithValue(ctx, resolverKey, resolver)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS echoes listed origins and allows them credentials. "*" admits any
// other origin without credentials, so the visitor cookie stays first-party.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			allowAny = true
		default:
			allow[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			_, listed := allow[origin]
			if origin != "" && (allowAny || listed) {
				if listed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				}
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Visitor-ID")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Visitor-ID")
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// visitorLimiter rate limits a route per visitor.
type visitorLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
	logger   *zap.Logger
}

func newVisitorLimiter(perMinute int, logger *zap.Logger) *visitorLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &visitorLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		logger:   logger,
	}
}

func (l *visitorLimiter) get(visitorID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[visitorID]
	if !ok {
		limiter = rate.NewLimiter(l.every, l.burst)
		l.limiters[visitorID] = limiter
	}
	return limiter
}

// Middleware is a pass-through when the limiter is disabled.
func (l *visitorLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID := GetVisitorID(r.Context())
		if !l.get(visitorID).Allow() {
			l.logger.Warn("submit rate limit exceeded", zap.String("visitor_id", visitorID))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many submissions, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func GetVisitorID(ctx context.Context) string {
	if id, ok := ctx.Value(visitorIDKey).(string); ok {
		return id
	}
	return ""
}

// resolverFrom returns the visitor's resolver, or a primary-language one
// outside VisitorMiddleware.
func resolverFrom(ctx context.Context) *i18n.Resolver {
	if r, ok := ctx.Value(resolverKey).(*i18n.Resolver); ok {
		return r
	}
	return i18n.Fixed(i18n.Primary)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
