package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/utils/errutil"
	"github.com/minerva-bot/minerva/pkg/utils/safe"
)

type Server struct {
	router              *chi.Mux
	version             string
	slackCommandHandler *SlackCommandHandler
	slackSigningSecret  string
}

type Options func(*Server)

// WithSlackCommand mounts the slash command hook. Requests are verified
// against signingSecret before reaching handler.
func WithSlackCommand(handler *SlackCommandHandler, signingSecret string) Options {
	return func(s *Server) {
		s.slackCommandHandler = handler
		s.slackSigningSecret = signingSecret
	}
}

// WithVersion sets the version reported by /health
func WithVersion(version string) Options {
	return func(s *Server) {
		s.version = version
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(s.version))

	if s.slackCommandHandler != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/command", s.slackCommandHandler.ServeHTTP)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(version string) http.HandlerFunc {
	type response struct {
		Status  string `json:"status"`
		Version string `json:"version,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(response{Status: "ok", Version: version})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal health response"), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		safe.Write(r.Context(), w, data)
	}
}
