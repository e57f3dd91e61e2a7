package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"artisanreel/internal/http/handlers"
	"artisanreel/internal/infra"
	"artisanreel/internal/middleware"
)

// Options wires the cross-cutting middleware. Nil limiters disable throttling.
type Options struct {
	JWTSecret     string
	CORSOrigins   []string
	Localizer     *middleware.Localizer
	CountryLookup middleware.CountryLookup
	Revocations   middleware.RevocationChecker
	Limiter       middleware.Allower
	VideoLimiter  middleware.Allower
	StaticDir     string
	StaticPrefix  string
	Logger        infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)
	if opts.Localizer != nil {
		r.Use(middleware.I18N(opts.Localizer, opts.CountryLookup))
	}

	if opts.StaticDir != "" {
		prefix := "/" + strings.Trim(opts.StaticPrefix, "/") + "/"
		if prefix == "//" {
			prefix = "/static/"
		}
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir))))
	}

	requireAuth := middleware.AuthJWT(opts.JWTSecret, opts.Revocations, opts.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.Limiter, opts.Logger))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", app.AuthSignUp)
				r.Post("/signin", app.AuthSignIn)
				r.Post("/reset-password", app.AuthResetPassword)
				r.With(requireAuth).Post("/signout", app.AuthSignOut)
				r.With(requireAuth).Get("/me", app.AuthMe)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Route("/content", func(r chi.Router) {
					r.Post("/generate", app.ContentGenerate)
					r.Post("/optimize", app.ContentOptimize)
					r.Post("/captions", app.ContentCaptions)
					r.Post("/music", app.ContentMusic)
					r.Post("/video-prompt", app.ContentVideoPrompt)
				})

				r.Route("/videos", func(r chi.Router) {
					videoLimit := middleware.RateLimitUser(opts.VideoLimiter, opts.Logger)
					r.With(videoLimit).Post("/generate", app.VideosGenerate)
					r.With(videoLimit).Post("/", app.VideosEnqueue)
					r.Get("/{job_id}", app.VideoStatus)
				})
			})
		})
	})

	return r
}
