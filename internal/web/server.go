// Package web provides the JSON HTTP API for the rental arbitrage portal.
package web

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/auth"
	"github.com/evcraddock/rental-arb/internal/email"
	"github.com/evcraddock/rental-arb/internal/logging"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

// requestTimeout bounds every request handled by the router.
const requestTimeout = 60 * time.Second

// Options configures a Server.
type Options struct {
	DB   *sql.DB
	Auth auth.Config

	// Market fills missing listing facts. Nil disables lookups.
	Market         property.ComparablesSource
	Concurrency    int
	SaveTimeout    time.Duration
	AllowedOrigins []string
}

// Server is the API HTTP handler.
type Server struct {
	properties    *property.Service
	verifications *verification.Repository
	analyses      *analysis.Service

	authCfg  auth.Config
	users    *auth.UserStore
	sessions *auth.SessionStore
	tokens   *auth.TokenStore
	apiKeys  *auth.APIKeyStore
	passkeys *auth.PasskeyStore
	limiter  *auth.FailureLimiter
	mailer   *auth.Mailer

	sendEmail auth.SendFunc
	passkey   *passkeyHandlers
	router    chi.Router
}

// NewServer wires stores and services over db and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.DB == nil {
		return nil, eris.New("database is required")
	}

	d := opts.DB
	s := &Server{
		properties:    property.NewService(property.NewRepository(d), opts.Market, opts.Concurrency),
		verifications: verification.NewRepository(d),
		analyses:      analysis.NewService(analysis.NewRepository(d), opts.SaveTimeout),
		authCfg:       opts.Auth,
		users:         auth.NewUserStore(d, opts.Auth.AdminEmail),
		sessions:      auth.NewSessionStore(d, !opts.Auth.DevMode),
		tokens:        auth.NewTokenStore(d),
		apiKeys:       auth.NewAPIKeyStore(d),
		passkeys:      auth.NewPasskeyStore(d),
		limiter:       auth.NewFailureLimiter(),
		mailer:        auth.NewMailer(opts.Auth),
		sendEmail:     email.Send,
	}

	pk, err := newPasskeyHandlers(s)
	if err != nil {
		return nil, eris.Wrap(err, "setting up passkeys")
	}
	s.passkey = pk

	s.router = s.routes(opts.AllowedOrigins)
	return s, nil
}

// Properties exposes the listing service for background jobs.
func (s *Server) Properties() *property.Service {
	return s.properties
}

// CleanupAuth removes expired login tokens and sessions.
func (s *Server) CleanupAuth(ctx context.Context) error {
	if err := s.tokens.Cleanup(ctx); err != nil {
		return eris.Wrap(err, "cleaning up tokens")
	}
	return eris.Wrap(s.sessions.Cleanup(ctx), "cleaning up sessions")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(logging.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Get("/verify", s.handleVerify)
		r.Post("/logout", s.handleLogout)
		r.Post("/cli/exchange", s.handleCLIExchange)
	})

	r.Route("/passkey", func(r chi.Router) {
		r.Post("/login/begin", s.passkey.handleBeginLogin)
		r.Post("/login/finish", s.passkey.handleFinishLogin)
		r.Post("/register/begin", s.passkey.handleBeginRegistration)
		r.Post("/register/finish", s.passkey.handleFinishRegistration)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAPIKey(s.apiKeys, s.sessions, s.limiter))

		r.Get("/me", s.handleMe)

		r.Post("/estimate/rate", s.handleEstimateRate)
		r.Post("/estimate/quick", s.handleQuickEstimate)
		r.Post("/score", s.handleScore)
		r.Post("/roi", s.handleROI)

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", s.handleListListings)
			r.Post("/", s.handleAddListing)
			r.With(auth.RequireTier(s.users, auth.TierAdmin)).Post("/rescore", s.handleRescoreAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetListing)
				r.Delete("/", s.handleDeleteListing)
				r.Put("/notes", s.handleUpdateNotes)
				r.Post("/score", s.handleRescoreListing)
				r.Post("/refresh", s.handleRefreshListing)
				r.Get("/verifications", s.handleListingVerifications)
				r.Post("/verifications", s.handleSubmitVerification)
			})
		})

		r.Route("/verifications", func(r chi.Router) {
			r.Use(auth.RequireTier(s.users, auth.TierAdmin))
			r.Get("/", s.handlePendingVerifications)
			r.Post("/{id}/resolve", s.handleResolveVerification)
		})

		r.Route("/analyses", func(r chi.Router) {
			r.Get("/", s.handleListAnalyses)
			r.With(auth.RequireTier(s.users, auth.TierPro)).Post("/", s.handleSaveAnalysis)
			r.Get("/{id}", s.handleGetAnalysis)
			r.Delete("/{id}", s.handleDeleteAnalysis)
		})

		r.With(auth.RequireTier(s.users, auth.TierPro)).Post("/reports/email", s.handleEmailReport)

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", s.handleListKeys)
			r.Post("/", s.handleCreateKey)
			r.Delete("/{id}", s.handleDeleteKey)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequireTier(s.users, auth.TierAdmin))
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleAddUser)
			r.Delete("/{id}", s.handleDeleteUser)
			r.Put("/{id}/tier", s.handleSetTier)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
