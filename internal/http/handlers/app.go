package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"artisanreel/internal/auth"
	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/middleware"
	"artisanreel/internal/providers/content"
	"artisanreel/internal/providers/video"
	"artisanreel/internal/videojob"
)

const (
	defaultMaxBodyBytes   = 1 << 20
	defaultMaxUploadBytes = 32 << 20
)

// App carries the services the HTTP handlers call into.
type App struct {
	Logger  infra.Logger
	Auth    *auth.Service
	Content content.Generator
	Video   video.Generator
	Jobs    *videojob.Service

	MaxUploadBytes int64
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	var body errorResponse
	body.Error.Code = code
	body.Error.Message = message
	a.json(w, status, body)
}

// fail maps domain errors onto the error envelope.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := publicMessage(err)
	if status == http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}
	a.error(w, status, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway, "provider_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

var sentinels = []error{
	domain.ErrInvalidInput,
	domain.ErrUnauthorized,
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrRateLimited,
	domain.ErrConfigurationMissing,
	domain.ErrProviderFailure,
}

// publicMessage drops the sentinel prefix that fmt.Errorf("%w: ...") adds.
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		if trimmed, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
			return trimmed
		}
	}
	return msg
}

func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	return nil
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) maxUploadBytes() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
