package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MightyWarner19/grainlly/common/auth"
)

func newRouter(tm *auth.TokenManager, trust bool, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(tm, trust)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c), "role": GetRole(c), "email": GetEmail(c)})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware_Bearer(t *testing.T) {
	tm := auth.NewTokenManager("secret")
	token, err := tm.IssueAccessToken("user-1", "a@b.in", "customer", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newRouter(tm, false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"user-1"`)
	assert.Contains(t, w.Body.String(), `"email":"a@b.in"`)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tm := auth.NewTokenManager("secret")
	payment, err := tm.IssuePaymentToken("user-1", "order_1", "pay_1", 100, time.Hour)
	require.NoError(t, err)
	expired, err := auth.NewTokenManager("secret").
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		IssueAccessToken("user-1", "", "", time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":       "",
		"no bearer":     "Token abc",
		"garbage":       "Bearer abc.def.ghi",
		"payment token": "Bearer " + payment,
		"expired":       "Bearer " + expired,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			newRouter(tm, false).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, w.Body.String())
		})
	}
}

func TestAuthMiddleware_GatewayHeaders(t *testing.T) {
	tm := auth.NewTokenManager("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "user-9")
	req.Header.Set("X-User-Role", "Seller")
	newRouter(tm, true).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"seller"`)

	w = httptest.NewRecorder()
	newRouter(tm, false).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSellerOnly(t *testing.T) {
	tm := auth.NewTokenManager("secret")
	customer, _ := tm.IssueAccessToken("u1", "", "customer", time.Hour)
	seller, _ := tm.IssueAccessToken("u2", "", "seller", time.Hour)
	r := newRouter(tm, false, SellerOnly())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+seller)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
