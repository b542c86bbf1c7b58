package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MightyWarner19/grainlly/common/auth"
	"github.com/MightyWarner19/grainlly/common/logger"
)

const (
	UserKey  = "userID"
	RoleKey  = "role"
	EmailKey = "email"
	NameKey  = "name"

	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
}

// AuthMiddleware resolves the caller from a Bearer access token. When
// trustGatewayHeaders is set, X-User-ID and X-User-Role from an upstream
// gateway are accepted instead.
func AuthMiddleware(tokens *auth.TokenManager, trustGatewayHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				unauthorized(c)
				return
			}
			claims, err := tokens.ParseAndValidateToken(tokenString, auth.TokenTypeAccess)
			if err != nil {
				logger.Debug(c.Request.Context(), "Rejected access token")
				unauthorized(c)
				return
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				unauthorized(c)
				return
			}
			role, _ := claims["role"].(string)
			email, _ := claims["email"].(string)
			setIdentity(c, sub, role, email)
			if name, ok := claims["name"].(string); ok {
				c.Set(NameKey, name)
			}
			c.Next()
			return
		}

		if trustGatewayHeaders {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				setIdentity(c, userID, c.GetHeader("X-User-Role"), c.GetHeader("X-User-Email"))
				c.Set(NameKey, c.GetHeader("X-User-Name"))
				c.Next()
				return
			}
		}

		unauthorized(c)
	}
}

func setIdentity(c *gin.Context, userID, role, email string) {
	if role == "" {
		role = RoleCustomer
	}
	c.Set(UserKey, userID)
	c.Set(RoleKey, strings.ToLower(role))
	c.Set(EmailKey, email)
}

// SellerOnly admits sellers and admins. It must run after AuthMiddleware.
func SellerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch GetRole(c) {
		case RoleSeller, RoleAdmin:
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized"})
		}
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(UserKey)
}

func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

// GetUserName returns the display name claim, if the identity carried one.
func GetUserName(c *gin.Context) string {
	return c.GetString(NameKey)
}
