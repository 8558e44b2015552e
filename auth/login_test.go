package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/souqline/souqline-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testIDPSecret = "idp_test_secret"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Cart{}, &models.CartItem{},
		&models.GuestCart{}, &models.GuestCartItem{}, &models.Product{},
	))
	return db
}

func idpToken(t *testing.T, sub, email, name string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"name":  name,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testIDPSecret))
	require.NoError(t, err)
	return token
}

func postLogin(t *testing.T, db *gorm.DB, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(db))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_CreatesUserAndCart(t *testing.T) {
	t.Setenv("IDP_SECRET", testIDPSecret)
	t.Setenv("JWT_SECRET", "jwt_test_secret")
	db := setupDB(t)

	w := postLogin(t, db, `{"id_token": "`+idpToken(t, "u1", "u1@example.com", "Amal")+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, "Amal", user.Name)

	var cart models.Cart
	assert.NoError(t, db.Where("user_id = ?", "u1").First(&cart).Error)
}

func TestLogin_RefreshesNameOnReturn(t *testing.T) {
	t.Setenv("IDP_SECRET", testIDPSecret)
	t.Setenv("JWT_SECRET", "jwt_test_secret")
	db := setupDB(t)

	w := postLogin(t, db, `{"id_token": "`+idpToken(t, "u1", "u1@example.com", "Amal")+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postLogin(t, db, `{"id_token": "`+idpToken(t, "u1", "u1@example.com", "Amal K")+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, "Amal K", user.Name)
}

func TestLogin_RejectsForgedToken(t *testing.T) {
	t.Setenv("IDP_SECRET", testIDPSecret)
	db := setupDB(t)

	claims := jwt.MapClaims{"sub": "u1", "email": "u1@example.com", "exp": time.Now().Add(time.Hour).Unix()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	w := postLogin(t, db, `{"id_token": "`+forged+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
