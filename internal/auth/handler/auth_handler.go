package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heybearc/quantshift-sub001/config"
	"github.com/heybearc/quantshift-sub001/internal/auth/dto"
	"github.com/heybearc/quantshift-sub001/internal/auth/service"
	autherrors "github.com/heybearc/quantshift-sub001/internal/errors"
	"github.com/heybearc/quantshift-sub001/pkg/constant"
)

type AuthHandler struct {
	loginService *service.LoginService
	tokens       service.TokenGenerator
	cfg          *config.Config
	logger       *zap.Logger
}

func NewAuthHandler(loginService *service.LoginService, tokens service.TokenGenerator, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		loginService: loginService,
		tokens:       tokens,
		cfg:          cfg,
		logger:       logger,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}
	if input.Identifier == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "identifier and password are required",
		})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	out, err := h.loginService.Login(c.Context(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, out.Tokens)

	return c.Status(fiber.StatusOK).JSON(out.User)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(constant.RefreshTokenCookie)
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": autherrors.ErrSessionInvalid.Error(),
		})
	}

	input := dto.RefreshInput{
		RefreshToken: refreshToken,
		IPAddress:    c.IP(),
		UserAgent:    string(c.Request().Header.UserAgent()),
	}

	tokens, err := h.loginService.Refresh(c.Context(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, *tokens)

	return c.SendStatus(fiber.StatusOK)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.loginService.Logout(c.Context(), c.Cookies(constant.RefreshTokenCookie), c.IP()); err != nil {
		return h.writeError(c, err)
	}

	h.clearAuthCookies(c)

	return c.SendStatus(fiber.StatusOK)
}

// ForceLogout revokes every session of the user named in the path. Admin only.
func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing user id"})
	}

	actorID, _ := c.Locals(localUserID).(string)

	if err := h.loginService.ForceLogout(c.Context(), actorID, userID, c.IP()); err != nil {
		return h.writeError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AuthHandler) writeError(c *fiber.Ctx, err error) error {
	var rateLimited *autherrors.RateLimitedError
	var locked *autherrors.AccountLockedError

	switch {
	case errors.As(err, &rateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &locked):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherrors.ErrInvalidCredentials),
		errors.Is(err, autherrors.ErrSessionInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherrors.ErrEmailNotVerified),
		errors.Is(err, autherrors.ErrPendingApproval),
		errors.Is(err, autherrors.ErrAccountInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, tokens dto.TokenPair) {
	secure := h.cfg.Env == "production"

	c.Cookie(&fiber.Cookie{
		Name:     constant.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Expires:  tokens.AccessExpiresAt,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Expires:  tokens.RefreshExpiresAt,
		Path:     "/api/v1",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	secure := h.cfg.Env == "production"
	expired := time.Now().Add(-time.Hour)

	c.Cookie(&fiber.Cookie{
		Name:     constant.AccessTokenCookie,
		Value:    "",
		Expires:  expired,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshTokenCookie,
		Value:    "",
		Expires:  expired,
		Path:     "/api/v1",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
