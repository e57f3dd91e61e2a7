package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Allower is satisfied by ratelimit.Limiter.
type Allower interface {
	Allow(ctx context.Context, subject string) (bool, error)
}

// RateLimit throttles by client IP. Limiter errors let the request through.
func RateLimit(limiter Allower, logger zerolog.Logger) func(http.Handler) http.Handler {
	return limitBy(limiter, logger, func(r *http.Request) string {
		return clientIPForRateLimit(r)
	})
}

// RateLimitUser throttles by authenticated user and must run after AuthJWT.
func RateLimitUser(limiter Allower, logger zerolog.Logger) func(http.Handler) http.Handler {
	return limitBy(limiter, logger, func(r *http.Request) string {
		if id := UserIDFromContext(r.Context()); id != "" {
			return "user:" + id
		}
		return "ip:" + clientIPForRateLimit(r)
	})
}

func limitBy(limiter Allower, logger zerolog.Logger, subject func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := subject(r)
			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn().Err(err).Str("subject", key).Msg("ratelimit: check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
