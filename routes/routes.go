package routes

import (
	"CareDesk/config"
	"CareDesk/controllers"
	"CareDesk/handlers"
	"CareDesk/middlewares"
	"CareDesk/services"
	"CareDesk/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP shell is built from.
type Dependencies struct {
	Config   *config.AppConfig
	Services *services.Services
	Verifier utils.TokenVerifier
	// Clock drives time-dependent endpoints. Defaults to time.Now.
	Clock func() time.Time
}

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(deps Dependencies) http.Handler {
	cfg := deps.Config
	svc := deps.Services

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.LoggingMiddleware())
	router.Use(middlewares.CorsMiddleware(middlewares.DefaultCorsConfig(cfg.CORSOrigins)))
	router.Use(middlewares.SecurityHeaders())
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	// identities from a hosted provider get a profile on first sight
	provision := cfg.AuthMode == config.AuthModeJWT
	auth := middlewares.TokenAuthMiddleware(deps.Verifier, svc.Identity, svc.Access, provision)

	authHandler := handlers.NewAuthHandler(svc.Identity, svc.Access)
	patientHandler := handlers.NewPatientHandler(svc.Patients)
	doctorHandler := handlers.NewDoctorHandler(svc.Doctors)
	appointmentHandler := handlers.NewAppointmentHandler(svc.Appointments)
	recordHandler := handlers.NewMedicalRecordHandler(svc.Records)
	billingHandler := handlers.NewBillingHandler(svc.Billing, deps.Clock)
	pharmacyHandler := handlers.NewPharmacyHandler(svc.Pharmacy)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard, deps.Clock)

	controllers.SetupRootRoute(router)
	controllers.NewAuthController(authHandler).RegisterRoutes(router, auth)

	api := router.Group("/", auth)
	controllers.SetupPatientRoutes(api, patientHandler, doctorHandler, appointmentHandler, recordHandler)
	controllers.SetupBillingRoutes(api, billingHandler, pharmacyHandler, dashboardHandler)

	controllers.SetupInternalRoutes(router, cfg.GetBearerToken(), billingHandler)

	return router
}
