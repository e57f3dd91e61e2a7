package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

const (
	TokenIssuer   = "artisanreel"
	TokenAudience = "artisanreel-clients"
)

type TokenClaims struct {
	Sub      string `json:"sub"`
	ID       string `json:"jti"`
	Name     string `json:"name,omitempty"`
	UserType string `json:"user_type,omitempty"`
	Locale   string `json:"locale,omitempty"`
	IssuedAt int64  `json:"iat"`
	Exp      int64  `json:"exp"`
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
}

// RevocationChecker reports whether a token id was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type userKey string

const (
	userIDKey  userKey = "user_id"
	claimsKey  userKey = "claims"
	rawAuthKey userKey = "raw_token"
)

func SignJWT(secret string, claims TokenClaims) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	headerEnc := base64.RawURLEncoding.EncodeToString(headerJSON)
	payloadEnc := base64.RawURLEncoding.EncodeToString(payloadJSON)
	data := headerEnc + "." + payloadEnc
	return data + "." + hmacSign(secret, data), nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func VerifyJWT(secret, token string) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Exp != 0 && time.Now().Unix() > claims.Exp {
		return nil, ErrTokenExpired
	}
	if claims.Issuer != TokenIssuer || claims.Audience != TokenAudience {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// AuthJWT rejects requests without a valid bearer token. revoked may be nil.
func AuthJWT(secret string, revoked RevocationChecker, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing authorization")
				return
			}
			claims, err := VerifyJWT(secret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			if revoked != nil && claims.ID != "" {
				gone, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("auth: revocation lookup failed")
					writeError(w, http.StatusServiceUnavailable, "unavailable", "session store unavailable")
					return
				}
				if gone {
					writeError(w, http.StatusUnauthorized, "unauthorized", ErrTokenRevoked.Error())
					return
				}
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			ctx = context.WithValue(ctx, rawAuthKey, token)
			if claims.Locale != "" {
				ctx = context.WithValue(ctx, LocaleKey, claims.Locale)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func ClaimsFromContext(ctx context.Context) *TokenClaims {
	if v, ok := ctx.Value(claimsKey).(*TokenClaims); ok {
		return v
	}
	return nil
}

// TokenFromContext returns the raw bearer token accepted by AuthJWT.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(rawAuthKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
