package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/foodlink/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Profile  *apiHandler.ProfileHandler
	Donation *apiHandler.DonationHandler
	Matching *apiHandler.MatchingHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)

	// Protected routes
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))
	r.PUT("/api/v1/profile/location", authMiddleware(handlers.Profile.UpdateLocation))

	r.GET("/api/v1/dashboard", authMiddleware(handlers.Donation.Dashboard))

	donations := r.Group("/api/v1/donations")
	donations.POST("", authMiddleware(handlers.Donation.Create))
	donations.GET("", authMiddleware(handlers.Donation.List))
	donations.GET("/{id}", authMiddleware(handlers.Donation.Get))
	donations.DELETE("/{id}", authMiddleware(handlers.Donation.Delete))
	donations.POST("/{id}/request", authMiddleware(handlers.Donation.Request))
	donations.POST("/{id}/accept", authMiddleware(handlers.Donation.Accept))
	donations.POST("/{id}/reject", authMiddleware(handlers.Donation.Reject))
	donations.POST("/{id}/collect", authMiddleware(handlers.Donation.Collect))
	donations.POST("/{id}/feedback", authMiddleware(handlers.Donation.SubmitFeedback))
	donations.POST("/{id}/feedback/dismiss", authMiddleware(handlers.Donation.DismissFeedback))
	donations.POST("/{id}/rate-donor", authMiddleware(handlers.Donation.RateDonor))

	r.GET("/api/v1/matches", authMiddleware(handlers.Matching.Nearby))

	r.GET("/api/v1/admin/users", authMiddleware(handlers.Profile.ListUsers))
	r.PUT("/api/v1/admin/users/{id}/verification", authMiddleware(handlers.Profile.SetVerification))

	return r
}
