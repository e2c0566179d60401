package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-academy/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-academy/app/dto/http"
	"github.com/vibast-solutions/ms-go-academy/app/middleware"
	"github.com/vibast-solutions/ms-go-academy/app/service"
)

// UserController serves the signed-in user's own profile and onboarding.
type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) GetProfile(ctx echo.Context) error {
	user, err := c.userService.GetProfile(ctx.Request().Context(), middleware.UserID(ctx))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Profile retrieved successfully", httpdto.UserData{User: user}))
}

func (c *UserController) UpdateProfile(ctx echo.Context) error {
	var req httpdto.UpdateProfileRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	user, err := c.userService.UpdateProfile(ctx.Request().Context(), middleware.UserID(ctx), dto.ProfileInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Bio:            req.Bio,
		Website:        req.Website,
		TwitterURL:     req.TwitterURL,
		FacebookURL:    req.FacebookURL,
		LinkedInURL:    req.LinkedInURL,
		YouTubeURL:     req.YouTubeURL,
		GitHubURL:      req.GitHubURL,
		AvatarPublicID: req.AvatarPublicID,
		AvatarURL:      req.AvatarURL,
	})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("User updated successfully", httpdto.UserData{User: user}))
}

func (c *UserController) CompleteOnboarding(ctx echo.Context) error {
	var req httpdto.OnboardingRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	user, err := c.userService.CompleteOnboarding(ctx.Request().Context(), middleware.UserID(ctx), dto.OnboardingInput{
		Role:             req.Role,
		FieldOfStudy:     req.FieldOfStudy,
		ReasonForJoining: req.ReasonForJoining,
	})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Onboarding completed successfully", httpdto.UserData{User: user}))
}
