package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/titantech/kyc-gateway/internal/api/handler"
	"github.com/titantech/kyc-gateway/internal/api/middleware"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

// Deps are the services and settings the HTTP layer is built from.
type Deps struct {
	Log          zerolog.Logger
	JWTSecret    string
	Cookies      handler.CookieConfig
	Auth         ports.AuthService
	Verification ports.VerificationService
	// Health maps dependency names to readiness checks. Nil entries are skipped.
	Health map[string]handler.Pinger
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer, gatherer := d.Registerer, d.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Verification, d.Cookies)
	digilockerHandler := handler.NewDigilockerHandler(d.Verification, d.Cookies)
	verificationHandler := handler.NewVerificationHandler(d.Verification)

	authMiddleware := middleware.Auth(d.JWTSecret)
	profileComplete := middleware.RequireProfileComplete(d.Auth.Me)

	apiGroup := e.Group("/api")

	// --- Auth routes ---
	auth := apiGroup.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, authMiddleware)
	auth.PUT("/profile-setup", authHandler.ProfileSetup, authMiddleware)
	auth.POST("/save-digilocker-verification", authHandler.SaveVerification, authMiddleware)

	// --- DigiLocker flow ---
	digilocker := apiGroup.Group("/digilocker", authMiddleware)
	digilocker.POST("/initialize", digilockerHandler.Initialize, profileComplete)
	digilocker.GET("/get-documents", digilockerHandler.GetDocuments)
	digilocker.POST("/get-download", digilockerHandler.GetDownload)

	// --- Verification ---
	apiGroup.POST("/verify-digilocker", verificationHandler.ConfirmVerification)
	apiGroup.POST("/pan-verification", verificationHandler.VerifyPAN, authMiddleware)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
