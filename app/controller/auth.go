package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-academy/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-academy/app/dto/http"
	"github.com/vibast-solutions/ms-go-academy/app/middleware"
	"github.com/vibast-solutions/ms-go-academy/app/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) SignUp(ctx echo.Context) error {
	var req httpdto.SignUpRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	user, err := c.authService.Register(ctx.Request().Context(), dto.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, httpdto.OK(
		"User registered successfully. Please check your email to verify your account.",
		httpdto.UserData{User: user},
	))
}

func (c *AuthController) SignIn(ctx echo.Context) error {
	var req httpdto.SignInRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	result, err := c.authService.SignIn(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, httpdto.OK("User signed in successfully", httpdto.SignInData{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}))
}

func (c *AuthController) SignOut(ctx echo.Context) error {
	if err := c.authService.SignOut(ctx.Request().Context(), middleware.UserID(ctx)); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("User signed out successfully", nil))
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	var req httpdto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	pair, err := c.authService.RefreshToken(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, httpdto.OK("Tokens refreshed successfully", httpdto.TokenData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}))
}

func (c *AuthController) VerifyEmail(ctx echo.Context) error {
	user, err := c.authService.VerifyEmail(ctx.Request().Context(), ctx.Param("token"))
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, httpdto.OK(
		"Email verified successfully! You can now sign in to your account.",
		httpdto.UserData{User: user},
	))
}

func (c *AuthController) ResendVerification(ctx echo.Context) error {
	req, err := bindEmail(ctx)
	if req == nil {
		return err
	}

	if err := c.authService.ResendVerification(ctx.Request().Context(), req.Email); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Verification email sent successfully. Please check your email.", nil))
}

func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	req, err := bindEmail(ctx)
	if req == nil {
		return err
	}

	if err := c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Password reset email sent successfully", nil))
}

func (c *AuthController) VerifyResetToken(ctx echo.Context) error {
	email, err := c.authService.ValidateResetToken(ctx.Request().Context(), ctx.Param("token"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Reset token is valid", httpdto.ResetTokenData{Email: email}))
}

func (c *AuthController) UpdatePassword(ctx echo.Context) error {
	var req httpdto.UpdatePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	if err := c.authService.UpdatePassword(ctx.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Password updated successfully", nil))
}

func (c *AuthController) ChangePassword(ctx echo.Context) error {
	var req httpdto.ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return invalidBody(ctx)
	}

	err := c.authService.ChangePassword(
		ctx.Request().Context(),
		middleware.UserID(ctx),
		req.CurrentPassword,
		req.NewPassword,
		req.ConfirmPassword,
	)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("Password changed successfully", nil))
}
