package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/EricNguyen1206/fastify-auth/internal/auth"
	"github.com/EricNguyen1206/fastify-auth/internal/config"
	errs "github.com/EricNguyen1206/fastify-auth/internal/errors"
	"github.com/EricNguyen1206/fastify-auth/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	maintenanceHandler *handler.MaintenanceHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/signin", authHandler.Signin)
	e.POST("/auth/refresh", authHandler.Refresh)

	// Secured routes: the access token travels in an httpOnly cookie, never a
	// header, so the JWT middleware looks it up there.
	secured := e.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "cookie:token",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &auth.Claims{}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errs.ErrorResponse{
				Error: "invalid or missing access token",
				Code:  "INVALID_TOKEN",
			})
		},
	}))

	secured.POST("/auth/signout", authHandler.Signout)
	secured.POST("/auth/signout-all", authHandler.SignoutAll)

	secured.GET("/user/profile", userHandler.GetProfile)
	secured.PUT("/user/profile", userHandler.UpdateProfile)

	secured.POST("/maintenance/sessions/sweep", maintenanceHandler.SweepSessions)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
