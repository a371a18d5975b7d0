package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EricNguyen1206/fastify-auth/internal/config"
	errs "github.com/EricNguyen1206/fastify-auth/internal/errors"
	"github.com/EricNguyen1206/fastify-auth/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required,min=2"`
}

// SigninRequest represents a user signin request.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errs.ErrorResponse{
			Error: "invalid request body",
			Code:  "VALIDATION_ERROR",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errs.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		httpErr := errs.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	log.Printf("user registered: %s", user.Email)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// Signin godoc
// @Summary Authenticate and open a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SigninRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req SigninRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errs.ErrorResponse{
			Error: "invalid request body",
			Code:  "VALIDATION_ERROR",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errs.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	ctx := c.Request().Context()
	user, err := h.authService.Signin(ctx, req.Email, req.Password)
	if err != nil {
		log.Printf("signin failed for %s from %s", req.Email, c.RealIP())
		httpErr := errs.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	accessToken, refreshToken, err := h.authService.CreateAuthSession(ctx, user)
	if err != nil {
		httpErr := errs.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	h.setCookie(c, accessTokenCookie, accessToken, h.cfg.AccessTokenTTL)
	h.setCookie(c, refreshTokenCookie, refreshToken, h.cfg.RefreshTokenTTL)

	log.Printf("user signed in: %s from %s", user.Email, c.RealIP())

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user,
	})
}

// Refresh godoc
// @Summary Exchange the refresh cookie for a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := cookieValue(c, refreshTokenCookie)

	accessToken, err := h.authService.RefreshAccessToken(c.Request().Context(), refreshToken)
	if err != nil {
		// A dead refresh token is unrecoverable; drop both cookies so the
		// client falls back to signin.
		h.clearCookie(c, accessTokenCookie)
		h.clearCookie(c, refreshTokenCookie)
		httpErr := errs.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	h.setCookie(c, accessTokenCookie, accessToken, h.cfg.AccessTokenTTL)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Token refreshed successfully",
	})
}

// Signout godoc
// @Summary Revoke the current session
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]string
// @Router /auth/signout [post]
func (h *AuthHandler) Signout(c echo.Context) error {
	// Best effort: a missing or already-revoked token must not fail logout.
	if err := h.authService.Signout(c.Request().Context(), cookieValue(c, refreshTokenCookie)); err != nil {
		log.Printf("signout cleanup failed: %v", err)
	}

	h.clearCookie(c, accessTokenCookie)
	h.clearCookie(c, refreshTokenCookie)

	if claims, err := currentClaims(c); err == nil {
		log.Printf("user signed out: %s", claims.Email)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// SignoutAll godoc
// @Summary Revoke every session of the current user
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signout-all [post]
func (h *AuthHandler) SignoutAll(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	count, err := h.authService.SignoutAll(c.Request().Context(), claims.UserID)
	if err != nil {
		httpErr := errs.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	h.clearCookie(c, accessTokenCookie)
	h.clearCookie(c, refreshTokenCookie)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Logged out everywhere",
		"count":   count,
	})
}

func (h *AuthHandler) setCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsDev(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cfg.IsDev(),
		SameSite: http.SameSiteStrictMode,
	})
}
