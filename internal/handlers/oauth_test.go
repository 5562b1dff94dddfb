package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/mocks"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/service"
)

type stubProvider struct {
	profile auth.OAuthProfile
	err     error
	codes   []string
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, code string) (auth.OAuthProfile, error) {
	p.codes = append(p.codes, code)
	return p.profile, p.err
}

func newOAuthRouter(provider OAuthProvider) (*gin.Engine, *mocks.UserRepositoryMock) {
	users := new(mocks.UserRepositoryMock)
	svc := service.NewAuthService(users, auth.NewJWTManager("secret", "pairchat"), time.Hour, 30*24*time.Hour)
	h := NewOAuthHandler(svc, provider, false)
	r := gin.New()
	r.GET("/auth/oauth/google", h.Start)
	r.GET("/auth/oauth/google/callback", h.Callback)
	return r, users
}

func oauthCallback(r http.Handler, query string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?"+query, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOAuthStartSetsState(t *testing.T) {
	r, _ := newOAuthRouter(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google?remember=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, oauthStateCookie)
	state := cookies[oauthStateCookie]
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "https://accounts.example.com/auth?state="+state.Value, w.Header().Get("Location"))
	assert.Equal(t, "1", cookies[oauthRememberCookie].Value)
}

func TestOAuthCallback(t *testing.T) {
	stateCookie := &http.Cookie{Name: oauthStateCookie, Value: "state-1"}

	t.Run("state mismatch", func(t *testing.T) {
		provider := &stubProvider{}
		r, _ := newOAuthRouter(provider)
		w := oauthCallback(r, "state=other&code=c1", stateCookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, provider.codes)
	})

	t.Run("missing state cookie", func(t *testing.T) {
		provider := &stubProvider{}
		r, _ := newOAuthRouter(provider)
		w := oauthCallback(r, "state=&code=c1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, provider.codes)
	})

	t.Run("provider denied", func(t *testing.T) {
		r, _ := newOAuthRouter(&stubProvider{})
		w := oauthCallback(r, "state=state-1&error=access_denied", stateCookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, auth.CodeOAuthFailed, decode(t, w)["code"])
	})

	t.Run("exchange fails", func(t *testing.T) {
		r, _ := newOAuthRouter(&stubProvider{err: errors.New("invalid_grant")})
		w := oauthCallback(r, "state=state-1&code=c1", stateCookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode(t, w)
		assert.Equal(t, auth.CodeOAuthFailed, body["code"])
		assert.NotContains(t, body["error"], "invalid_grant")
	})

	t.Run("first sign-in creates the account", func(t *testing.T) {
		provider := &stubProvider{profile: auth.OAuthProfile{Subject: "g-1", Email: "ann@example.com", EmailVerified: true, Name: "Ann"}}
		r, users := newOAuthRouter(provider)
		users.On("GetAccountByEmail", mock.Anything, "ann@example.com").Return(models.Account{}, repositories.ErrUserNotFound).Once()
		users.On("CreateUser", mock.Anything, mock.Anything).
			Return(models.User{ID: ann, Name: "Ann", Email: "ann@example.com", Status: models.StatusOnline}, nil).Once()

		w := oauthCallback(r, "state=state-1&code=c1", stateCookie)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.NotEmpty(t, body["token"])
		assert.Equal(t, ann, body["user"].(map[string]any)["id"])
		assert.Equal(t, []string{"c1"}, provider.codes)
		users.AssertExpectations(t)
	})
}

func TestOAuthNotConfigured(t *testing.T) {
	r, _ := newOAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, auth.CodeOAuthDisabled, decode(t, w)["code"])
}
