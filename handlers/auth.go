package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"go.uber.org/zap"

	jwtmiddleware "github.com/lepens-foundation/lepens/middleware/jwt"
	"github.com/lepens-foundation/lepens/services/auth"
	"github.com/lepens-foundation/lepens/services/jwt"
	"github.com/lepens-foundation/lepens/services/logging"
)

type AuthHandler struct {
	authService *auth.Service
	jwtService  *jwt.Service
	logger      *logging.Service
}

func NewAuthHandler(authService *auth.Service, jwtService *jwt.Service, logger *logging.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
		logger:      logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	UserID uint   `json:"userId"`
	Code   string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	account, err := h.authService.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrEmailAlreadyRegistered):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("signup failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
		}
	}

	h.logClientDevice(c, "signup", account.ID)

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Account created. Check your email for the verification code.",
		"userId":  account.ID,
	})
}

func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	account, err := h.authService.VerifyCode(req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountNotFound),
			errors.Is(err, auth.ErrAlreadyVerified),
			errors.Is(err, auth.ErrCodeInvalidOrExpired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("verification failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify account")
		}
	}

	token, err := h.jwtService.GenerateToken(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue token")
	}

	h.setTokenCookie(c, token)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Account verified successfully",
		"token":   token,
		"user":    h.authService.Projection(account),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	account, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields),
			errors.Is(err, auth.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrNotVerified):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			h.logger.Error("login failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
		}
	}

	token, err := h.jwtService.GenerateToken(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue token")
	}

	h.setTokenCookie(c, token)
	h.logClientDevice(c, "login", account.ID)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Logged in successfully",
		"user":    h.authService.Projection(account),
		"token":   token,
	})
}

// setTokenCookie mirrors the bearer token into a cookie for browser clients.
// The cookie lifetime tracks the token's embedded expiry.
func (h *AuthHandler) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.jwtService.AccessExpiry()),
		MaxAge:   int(h.jwtService.AccessExpiry() / time.Second),
		HttpOnly: true,
	})
}

// Logout is stateless. The client discards its token; the auth cookie set at
// login is expired here. An issued token stays valid until its embedded
// expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) CheckAuth(c echo.Context) error {
	account := jwtmiddleware.GetAccount(c)
	if account == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid JWT token")
	}

	return c.JSON(http.StatusOK, h.authService.Projection(account))
}

func (h *AuthHandler) logClientDevice(c echo.Context, action string, accountID uint) {
	ua := useragent.Parse(c.Request().UserAgent())
	h.logger.Info(action,
		zap.Uint("account_id", accountID),
		zap.String("browser", ua.Name),
		zap.String("os", ua.OS),
		zap.Bool("mobile", ua.Mobile))
}
