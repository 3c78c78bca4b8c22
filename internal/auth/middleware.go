package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cmdgate/internal/apperr"
	"cmdgate/internal/models"
	"cmdgate/internal/store"
)

// Claims represents the JWT claims structure for login sessions.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

const userKey = "user"

// Identity returns a Gin middleware that resolves the caller to a user.
// Programmatic clients send an opaque X-API-Key credential, which is
// compared, never parsed. Interactive sessions send a Bearer JWT issued
// by the login handler. Either way the resolved *models.User lands in
// the request context; failure rejects the request before any domain
// logic runs.
func Identity(st store.Store, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-Key"); key != "" {
			user, err := userByAPIKey(c.Request.Context(), st, key)
			if err != nil {
				unauthorized(c, "invalid api key")
				return
			}
			c.Set(userKey, user)
			c.Next()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if tokenStr == "" {
			unauthorized(c, "missing credentials")
			return
		}

		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "invalid or expired token")
			return
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			unauthorized(c, "invalid claims")
			return
		}

		user, err := userByID(c.Request.Context(), st, claims.UserID)
		if err != nil {
			unauthorized(c, "user not found")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin gates admin-only routes. The check runs before any state
// is read or mutated by the handler.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
				"code":  apperr.Forbidden,
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity resolved by Identity, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": msg,
		"code":  apperr.Unauthorized,
	})
}

func userByAPIKey(ctx context.Context, st store.Store, key string) (*models.User, error) {
	var user *models.User
	err := st.Tx(ctx, func(tx store.Tx) error {
		u, err := tx.UserByAPIKey(key)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	return user, err
}

func userByID(ctx context.Context, st store.Store, id int64) (*models.User, error) {
	var user *models.User
	err := st.Tx(ctx, func(tx store.Tx) error {
		u, err := tx.UserByID(id)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	return user, err
}
