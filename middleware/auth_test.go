package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "jwt_test_secret"

func sessionToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func getProtected(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", ValidateToken, func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateToken_UserSessionPasses(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	w := getProtected(t, sessionToken(t, "u1", "user"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestValidateToken_GuestTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	w := getProtected(t, sessionToken(t, "guest_abc", "guest"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateToken_MissingHeaderRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	w := getProtected(t, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateToken_BadSignatureRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	claims := jwt.MapClaims{"user_id": "u1", "role": "user", "exp": time.Now().Add(time.Hour).Unix()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	w := getProtected(t, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
