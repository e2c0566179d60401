package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	httpdto "github.com/vibast-solutions/ms-go-academy/app/dto/http"
	"github.com/vibast-solutions/ms-go-academy/app/service"
	"github.com/vibast-solutions/ms-go-academy/app/validation"
)

const msgInternal = "Internal server error"

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope for err. Errors without a
// service kind are logged and hidden behind a generic message.
func respondError(ctx echo.Context, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) || svcErr.Kind == service.KindInternal {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": ctx.Request().Method,
			"path":   ctx.Path(),
		}).Error("Request failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.Fail(msgInternal))
	}

	body := httpdto.Fail(svcErr.Message)
	body.NeedsVerification = svcErr.NeedsVerification
	body.UserID = svcErr.UserID
	return ctx.JSON(statusFor(svcErr.Kind), body)
}

func invalidBody(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.Fail("Invalid request body"))
}

// bindEmail binds and validates an {email} body. A nil request means a
// response has already been written.
func bindEmail(ctx echo.Context) (*httpdto.EmailRequest, error) {
	var req httpdto.EmailRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, invalidBody(ctx)
	}
	if err := ctx.Validate(&req); err != nil {
		return nil, ctx.JSON(http.StatusBadRequest, httpdto.Fail(validation.Message(err)))
	}
	return &req, nil
}
