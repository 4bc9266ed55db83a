package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/R3E-Network/ledger_layer/internal/token"
	"github.com/R3E-Network/ledger_layer/pkg/logger"
)

type contextKey string

const callerKey contextKey = "ledger-caller"

// CallerFrom returns the authenticated caller identity, or the null identity
// when the request was not authenticated.
func CallerFrom(ctx context.Context) token.Address {
	if caller, ok := ctx.Value(callerKey).(token.Address); ok {
		return caller
	}
	return token.ZeroAddress
}

func withCaller(ctx context.Context, caller token.Address) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	// APIKeys maps hex-encoded sha256 digests of API keys to caller
	// addresses. Raw keys are never held in memory.
	APIKeys map[string]string
	// JWTSecret enables HS256 bearer tokens whose subject claim is the
	// caller address. Empty disables JWT auth.
	JWTSecret string
}

// Auth resolves the caller identity from an X-API-Key header or a bearer
// token and stores it in the request context. Read-only requests pass through
// unauthenticated; mutating handlers reject requests with no caller.
func Auth(cfg AuthConfig, log *logger.Logger) mux.MiddlewareFunc {
	if log == nil {
		log = logger.NewDefault("httpapi-auth")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				digest := hashKey(apiKey)
				if addr, ok := cfg.APIKeys[digest]; ok {
					next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), token.Address(addr))))
					return
				}
				log.WithField("path", r.URL.Path).Warn("unknown API key")
				writeError(w, http.StatusUnauthorized, fmt.Errorf("unknown API key"))
				return
			}

			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && cfg.JWTSecret != "" {
				caller, err := callerFromJWT(strings.TrimPrefix(auth, "Bearer "), cfg.JWTSecret)
				if err != nil {
					log.WithError(err).WithField("path", r.URL.Path).Warn("bearer token rejected")
					writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid bearer token"))
					return
				}
				next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerFromJWT(raw, secret string) (token.Address, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return token.ZeroAddress, err
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return token.ZeroAddress, fmt.Errorf("token has no subject")
	}
	return token.Address(sub), nil
}

// HashKey returns the hex-encoded sha256 digest used to look up API keys in
// AuthConfig.APIKeys.
func HashKey(key string) string { return hashKey(key) }

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// RateLimiter applies a per-caller token bucket, falling back to the remote
// address for unauthenticated requests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a rate limiter allowing requestsPerSecond sustained
// with the given burst.
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Bounded reset instead of per-entry expiry bookkeeping.
	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}
	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the rate limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := string(CallerFrom(r.Context()))
		if key == "" {
			key = r.RemoteAddr
		}
		if !rl.limiterFor(key).Allow() {
			writeError(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS allows browser clients from the configured origins; "*" allows any.
func CORS(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
