package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/fouedh91760/a-level-saver-sub001/internal/responder"
	"github.com/fouedh91760/a-level-saver-sub001/internal/snapshot"
	"github.com/fouedh91760/a-level-saver-sub001/internal/telemetry"
)

const (
	requestTimeout   = 5 * time.Second
	defaultRateLimit = 100
)

type Server struct {
	holder      *snapshot.Holder
	source      snapshot.Source
	responder   *responder.Responder
	auditor     responder.Auditor
	log         zerolog.Logger
	env         string
	adminAPIKey string
	rateLimit   int
}

// NewServer creates the HTTP API over holder. src is re-read on POST
// /v1/catalog/reload; a nil src disables that endpoint.
func NewServer(holder *snapshot.Holder, src snapshot.Source, env, adminKey string) *Server {
	return &Server{
		holder:      holder,
		source:      src,
		responder:   responder.New(holder),
		log:         zerolog.Nop(),
		env:         env,
		adminAPIKey: adminKey,
		rateLimit:   defaultRateLimit,
	}
}

// WithResponder replaces the default pipeline, e.g. to attach an auditor.
func (s *Server) WithResponder(r *responder.Responder) *Server {
	s.responder = r
	return s
}

// WithAuditor records catalog reload outcomes.
func (s *Server) WithAuditor(a responder.Auditor) *Server {
	s.auditor = a
	return s
}

func (s *Server) WithLogger(log zerolog.Logger) *Server {
	s.log = log.With().Str("component", "api").Logger()
	return s
}

// WithRateLimit sets the per-IP request budget per minute.
func (s *Server) WithRateLimit(perMinute int) *Server {
	if perMinute > 0 {
		s.rateLimit = perMinute
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			s.rateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(RateLimitedError),
		))

		// long-lived, no request timeout
		r.Get("/catalog/stream", s.handleCatalogStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/catalog", s.handleCatalog)
			r.Post("/detect", s.handleDetect)
			r.Post("/resolve", s.handleResolve)
			r.Post("/respond", s.handleRespond)

			// admin (protected)
			r.Post("/catalog/reload", s.authAdmin(s.handleReload))
		})
	})

	return r
}

// ---- middleware ----

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if got == "" {
			UnauthorizedError(w, r, "Missing bearer token")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminAPIKey)) != 1 {
			ForbiddenError(w, r, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}
