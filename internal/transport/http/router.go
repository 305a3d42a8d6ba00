package http

import (
	"net/http"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/alumni"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/verification"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/config"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/dynamo"
	jwtinfra "github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/jwt"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/linkedin"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/smtp"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/ratelimit"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/transport/http/handler"
	appmiddleware "github.com/Blittyyy/RateMyCollegeFinal/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	TokenRepo   *dynamo.TokenRepo
	CollegeRepo *dynamo.CollegeRepo
	StateRepo   *dynamo.OAuthStateRepo
	Mailer      smtp.Mailer
	LinkedIn    *linkedin.Client
	Limiter     *ratelimit.Limiter
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw, optionalAuthMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		optionalAuthMw = appmiddleware.OptionalAuth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
		optionalAuthMw = authMw
	}

	// Every route carries a quota class; the general class is the floor.
	generalRL := appmiddleware.RateLimit(deps.Limiter, ratelimit.ClassGeneral)
	authRL := appmiddleware.RateLimit(deps.Limiter, ratelimit.ClassAuth)
	emailRL := appmiddleware.RateLimit(deps.Limiter, ratelimit.ClassEmail)

	verificationSvc := verification.NewService(verification.Deps{
		UserRepo:      deps.UserRepo,
		TokenRepo:     deps.TokenRepo,
		CollegeRepo:   deps.CollegeRepo,
		Mailer:        deps.Mailer,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	alumniSvc := alumni.NewService(alumni.Deps{
		UserRepo:    deps.UserRepo,
		StateRepo:   deps.StateRepo,
		CollegeRepo: deps.CollegeRepo,
		Provider:    deps.LinkedIn,
	})

	healthH := handler.NewHealthHandler()
	signupH := handler.NewSignupHandler(verificationSvc)
	verifyH := handler.NewVerifyHandler(verificationSvc)
	statusH := handler.NewStatusHandler(verificationSvc)
	oauthH := handler.NewOAuthHandler(alumniSvc, cfg.PublicBaseURL)

	// Exactly one quota class per route; health checks are ungated.
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(authRL).Post("/signup", signupH.Register)
		r.With(emailRL).Get("/verify", verifyH.Redeem)
		r.With(emailRL).Post("/resend-verification", verifyH.Resend)

		r.With(optionalAuthMw, authRL).Get("/oauth/start", oauthH.Start)
		r.With(authRL).Get("/oauth/callback", oauthH.Callback)

		r.Group(func(r chi.Router) {
			r.Use(authMw, generalRL)
			r.Get("/verification-status", statusH.Get)
		})
	})

	return r
}
