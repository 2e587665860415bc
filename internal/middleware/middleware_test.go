package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gigmarket/internal/model"
	"gigmarket/internal/service/auth"
	iutils "gigmarket/internal/utils"
	"gigmarket/pkg/utils"
)

type stubAuthService struct {
	claims *iutils.JWTClaims
	err    error
}

func (s *stubAuthService) Register(ctx context.Context, req *auth.RegisterRequest) (*model.User, error) {
	return nil, nil
}

func (s *stubAuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.TokenResponse, error) {
	return nil, nil
}

func (s *stubAuthService) Logout(ctx context.Context, userID uint64) error {
	return nil
}

func (s *stubAuthService) ValidateToken(ctx context.Context, token string) (*iutils.JWTClaims, error) {
	return s.claims, s.err
}

func (s *stubAuthService) RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenResponse, error) {
	return nil, nil
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc auth.AuthService) *gin.Engine {
		r := gin.New()
		r.Use(Auth(svc))
		r.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
		})
		return r
	}

	t.Run("missing header rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		newRouter(&stubAuthService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(AuthorizationHeader, "Token abc")
		newRouter(&stubAuthService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		svc := &stubAuthService{err: utils.NewError(utils.CodeUnauthorized, "invalid token")}
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+"bad")
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets user", func(t *testing.T) {
		svc := &stubAuthService{claims: &iutils.JWTClaims{UserID: 7, Username: "alice"}}
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+"good")
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":7`)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(1, 2)
	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	// burst of 2 passes, the third is throttled
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
