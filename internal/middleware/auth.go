package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/proworkshop/internal/auth"
	"github.com/ukydev/proworkshop/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the bearer token and adds its claims to the request
// context. It is the single guard in front of every protected route.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission middleware checks if the user's role grants the action
func (m *AuthMiddleware) RequirePermission(requiredAction string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "User context not found")
				return
			}

			user := &models.User{Role: claims.Role}
			if !user.HasPermission(requiredAction) {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok && claims != nil
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// RateLimitMiddleware limits each client to a fixed number of requests per
// sliding window. Clients are keyed by the connection address; forwarding
// headers are honoured only when the limiter trusts its proxy.
type RateLimitMiddleware struct {
	maxRequests int
	window      time.Duration
	trustProxy  bool
	now         func() time.Time

	mu        sync.Mutex
	requests  map[string][]time.Time // client -> request times
	lastSweep time.Time
}

// RateLimitOption customizes a RateLimitMiddleware.
type RateLimitOption func(*RateLimitMiddleware)

// TrustProxy keys clients by X-Forwarded-For / X-Real-IP. Enable it only
// when the server sits behind a proxy that overwrites those headers.
func TrustProxy(trust bool) RateLimitOption {
	return func(m *RateLimitMiddleware) {
		m.trustProxy = trust
	}
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(maxRequests int, window time.Duration, opts ...RateLimitOption) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		requests:    make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(m.clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(clientIP string) bool {
	now := m.now()
	windowStart := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= m.window {
		m.sweep(windowStart)
		m.lastSweep = now
	}

	recent := m.requests[clientIP][:0]
	for _, ts := range m.requests[clientIP] {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= m.maxRequests {
		m.requests[clientIP] = recent
		return false
	}
	m.requests[clientIP] = append(recent, now)
	return true
}

// sweep drops clients with no request inside the current window.
func (m *RateLimitMiddleware) sweep(windowStart time.Time) {
	for ip, times := range m.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(m.requests, ip)
		}
	}
}

// tracked reports how many clients currently hold limiter state.
func (m *RateLimitMiddleware) tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	if m.trustProxy {
		if ip := forwardedIP(r); ip != "" {
			return ip
		}
	}
	return remoteIP(r)
}

// forwardedIP returns the client named by proxy headers, if any.
func forwardedIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
