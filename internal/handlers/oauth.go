package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/service"
)

const (
	oauthStateCookie    = "pairchat_oauth_state"
	oauthRememberCookie = "pairchat_oauth_remember"
	oauthCookiePath     = "/auth/oauth"
	oauthCookieMaxAge   = 600
)

// OAuthProvider runs an authorization code flow for one identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.OAuthProfile, error)
}

// OAuthHandler serves the Google sign-in redirect and callback.
type OAuthHandler struct {
	svc          *service.AuthService
	provider     OAuthProvider
	secureCookie bool
}

// NewOAuthHandler answers 503 on both routes when provider is nil.
func NewOAuthHandler(svc *service.AuthService, provider OAuthProvider, secureCookie bool) *OAuthHandler {
	return &OAuthHandler{svc: svc, provider: provider, secureCookie: secureCookie}
}

func (h *OAuthHandler) Start(c *gin.Context) {
	if h.provider == nil {
		respondError(c, auth.NewError(auth.CodeOAuthDisabled))
		return
	}

	state := uuid.NewString()
	remember := "0"
	if c.Query("remember") == "true" {
		remember = "1"
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthCookieMaxAge, oauthCookiePath, "", h.secureCookie, true)
	c.SetCookie(oauthRememberCookie, remember, oauthCookieMaxAge, oauthCookiePath, "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	if h.provider == nil {
		respondError(c, auth.NewError(auth.CodeOAuthDisabled))
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	remember, _ := c.Cookie(oauthRememberCookie)
	c.SetCookie(oauthStateCookie, "", -1, oauthCookiePath, "", h.secureCookie, true)
	c.SetCookie(oauthRememberCookie, "", -1, oauthCookiePath, "", h.secureCookie, true)

	code := c.Query("code")
	if c.Query("error") != "" || code == "" {
		respondError(c, auth.NewError(auth.CodeOAuthFailed))
		return
	}

	ctx := c.Request.Context()
	profile, err := h.provider.Exchange(ctx, code)
	if err != nil {
		logger.FromContext(ctx).Warn("oauth exchange failed", zap.Error(err))
		respondError(c, auth.NewError(auth.CodeOAuthFailed))
		return
	}

	session, err := h.svc.SignInWithOAuth(ctx, profile, remember == "1")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
