package controller

import "github.com/labstack/echo/v4"

// Routes wires the controllers onto an API group. AuthLimit, when set,
// guards every /auth route.
type Routes struct {
	Auth        *AuthController
	User        *UserController
	Health      *HealthController
	RequireAuth echo.MiddlewareFunc
	AuthLimit   echo.MiddlewareFunc
}

func (r Routes) Register(api *echo.Group) {
	api.GET("/health", r.Health.Health)

	auth := api.Group("/auth")
	if r.AuthLimit != nil {
		auth.Use(r.AuthLimit)
	}
	auth.POST("/sign-up", r.Auth.SignUp)
	auth.POST("/sign-in", r.Auth.SignIn)
	auth.POST("/refresh-token", r.Auth.RefreshToken)
	auth.GET("/verify-email/:token", r.Auth.VerifyEmail)
	auth.POST("/resend-verification", r.Auth.ResendVerification)
	auth.POST("/reset-password", r.Auth.RequestPasswordReset)
	auth.GET("/verify-reset-token/:token", r.Auth.VerifyResetToken)
	auth.POST("/update-password", r.Auth.UpdatePassword)

	authProtected := auth.Group("")
	authProtected.Use(r.RequireAuth)
	authProtected.POST("/sign-out", r.Auth.SignOut)
	authProtected.PUT("/change-password", r.Auth.ChangePassword)

	users := api.Group("/users", r.RequireAuth)
	users.GET("/profile", r.User.GetProfile)
	users.PUT("/profile", r.User.UpdateProfile)

	api.PUT("/onboarding", r.User.CompleteOnboarding, r.RequireAuth)
}
