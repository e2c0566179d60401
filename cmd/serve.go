package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-academy/app/controller"
	academygrpc "github.com/vibast-solutions/ms-go-academy/app/grpc"
	"github.com/vibast-solutions/ms-go-academy/app/middleware"
	"github.com/vibast-solutions/ms-go-academy/app/repository"
	"github.com/vibast-solutions/ms-go-academy/app/service"
	"github.com/vibast-solutions/ms-go-academy/app/validation"
	"github.com/vibast-solutions/ms-go-academy/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) API and the gRPC health server for the identity service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).WithField("driver", cfg.Store.Driver).Fatal("Failed to open store")
	}
	defer closeStore()

	mailer, err := newMailer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mailer")
	}

	authService := service.NewAuthService(store, mailer, cfg)
	userService := service.NewUserService(store)

	go startGRPCServer(ctx, cfg, store)

	startHTTPServer(ctx, cfg, store, authService, userService)
}

func newHTTPServer(cfg *config.Config, store repository.UserStore, authService *service.AuthService, userService *service.UserService) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.App.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	routes := controller.Routes{
		Auth:        controller.NewAuthController(authService),
		User:        controller.NewUserController(userService),
		Health:      controller.NewHealthController(store, cfg.Store.Driver),
		RequireAuth: middleware.NewAuthMiddleware(authService).RequireAuth,
	}
	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewRateLimiter(cfg.RateLimit.Rate)
		if err != nil {
			return nil, err
		}
		routes.AuthLimit = middleware.RateLimit(limiter)
	}
	routes.Register(e.Group("/api/v1"))

	return e, nil
}

func startHTTPServer(ctx context.Context, cfg *config.Config, store repository.UserStore, authService *service.AuthService, userService *service.UserService) {
	e, err := newHTTPServer(cfg, store, authService, userService)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build HTTP server")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Failed to shut down HTTP server")
		}
	}()

	httpAddr := cfg.HTTPAddr()
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
	logrus.Info("HTTP server stopped")
}

func startGRPCServer(ctx context.Context, cfg *config.Config, store repository.UserStore) {
	grpcAddr := cfg.GRPCAddr()
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := academygrpc.NewServer(store)
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
	if err := grpcServer.Serve(lis); err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}
}
