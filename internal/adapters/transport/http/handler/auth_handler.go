package handler

import (
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// The refresh token is only ever read by POST /refresh.
const refreshCookiePath = "/refresh"

func (h *Handler) setSessionCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.AccessCookie,
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		h.cfg.CookieSecure,
		true,
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		middleware.RefreshCookie,
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		refreshCookiePath,
		h.cfg.CookieDomain,
		h.cfg.CookieSecure,
		true,
	)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, refreshCookiePath, h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func hashed(identifier string) zap.Field {
	return zap.String("account", fmt.Sprintf("%x", sha256.Sum256([]byte(identifier))))
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "identifier and password are required")
		return
	}
	h.log.Info("/register", hashed(body.Identifier))

	if err := h.auth.Register(c.Request.Context(), body); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Message: "registered"})
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "identifier and password are required")
		return
	}
	h.log.Info("/login", hashed(body.Identifier))

	pair, err := h.auth.Login(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setSessionCookies(c, pair)
	c.JSON(http.StatusOK, dto.LoginResponse{
		Success:     true,
		Message:     "logged in",
		AccessToken: pair.AccessToken,
		TokenType:   "bearer",
	})
}

func (h *Handler) refresh(c *gin.Context) {
	token, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || token == "" {
		fail(c, http.StatusUnauthorized, "missing refresh token")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setSessionCookies(c, pair)
	c.JSON(http.StatusOK, dto.RefreshResponse{Success: true, AccessToken: pair.AccessToken})
}

func (h *Handler) logout(c *gin.Context) {
	h.clearSessionCookies(c)
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true})
}

func (h *Handler) getDisplayName(c *gin.Context) {
	name, err := h.auth.GetDisplayName(c.Request.Context(), middleware.Account(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DisplayNameResponse{Name: name})
}

func (h *Handler) setDisplayName(c *gin.Context) {
	var body dto.DisplayNameDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.auth.UpdateDisplayName(c.Request.Context(), middleware.Account(c), body); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true})
}
