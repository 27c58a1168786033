package controllers

import (
	"CareDesk/handlers"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Handler *handlers.AuthHandler
}

// NewAuthController creates a new AuthController with the given AuthHandler
func NewAuthController(authHandler *handlers.AuthHandler) *AuthController {
	return &AuthController{
		Handler: authHandler,
	}
}

// RegisterRoutes wires the public credential routes and the authenticated
// profile and role routes.
func (ac *AuthController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	public := router.Group("/auth")
	{
		public.POST("/register", ac.Handler.Register)
		public.POST("/login", ac.Handler.Login)
		public.POST("/refresh", ac.Handler.RefreshToken)
		public.POST("/logout", ac.Handler.Logoff)
		public.POST("/send-reset-code", ac.Handler.SendResetCode)
		public.POST("/change-password", ac.Handler.ChangePassword)
	}

	protected := router.Group("/", auth)
	{
		protected.GET("/me", ac.Handler.Me)
		protected.GET("/profiles", ac.Handler.GetAllProfiles)
		protected.GET("/profiles/:id", ac.Handler.GetProfileByID)
		protected.DELETE("/profiles/:id", ac.Handler.DeleteProfile)
		protected.GET("/profiles/:id/roles", ac.Handler.GetRoles)
		protected.POST("/profiles/:id/roles", ac.Handler.AssignRole)
		protected.DELETE("/roles/:id", ac.Handler.RevokeRole)
	}
}
