package auth

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	cartControllers "github.com/souqline/souqline-api/controllers/cart"
	"github.com/souqline/souqline-api/models"
	"gorm.io/gorm"
)

// identity is what the upstream identity provider asserts about the
// caller. Verification is a black box from the storefront's point of
// view: a valid provider-signed token yields a stable user id.
type identity struct {
	UserID string
	Email  string
	Name   string
}

func verifyIdentityToken(raw string) (*identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(os.Getenv("IDP_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid identity token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid identity claims")
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return nil, errors.New("identity token missing subject or email")
	}
	name, _ := claims["name"].(string)
	return &identity{UserID: sub, Email: email, Name: name}, nil
}

// POST /auth/login
// Exchanges an identity-provider token for a session token. If the
// request carries a guest_id, that guest's cart is folded into the
// user's cart as part of the login.
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDToken string `json:"id_token" binding:"required"`
			GuestID string `json:"guest_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		ident, err := verifyIdentityToken(req.IDToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		err = db.Where("id = ?", ident.UserID).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				ID:    ident.UserID,
				Email: ident.Email,
				Name:  ident.Name,
				Cart:  models.Cart{UserID: ident.UserID},
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
				return
			}
		case err == nil:
			if err := db.Model(&user).Updates(models.User{Name: ident.Name}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		mergeStatus := "no-guest-cart"
		if req.GuestID != "" {
			merged, err := cartControllers.MergeGuestCart(db, req.GuestID, user.ID)
			switch {
			case err != nil:
				mergeStatus = "merge-failed"
			case merged:
				mergeStatus = "merged"
			default:
				mergeStatus = "guest-cart-empty"
			}
		}

		token, err := issueToken(user.ID, "user", 24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"merge_status": mergeStatus,
			"user":         user,
			"token":        token,
		})
	}
}
