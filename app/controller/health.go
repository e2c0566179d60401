package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	httpdto "github.com/vibast-solutions/ms-go-academy/app/dto/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store  pinger
	driver string
}

func NewHealthController(store pinger, driver string) *HealthController {
	return &HealthController{store: store, driver: driver}
}

func (c *HealthController) Health(ctx echo.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
	defer cancel()

	if err := c.store.Ping(pingCtx); err != nil {
		logrus.WithError(err).WithField("store", c.driver).Warn("Store ping failed")
		return ctx.JSON(http.StatusServiceUnavailable, httpdto.Fail("Store unavailable"))
	}
	return ctx.JSON(http.StatusOK, httpdto.OK("OK", httpdto.HealthData{Status: "ok", Store: c.driver}))
}
