package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"loancrm/internal/models"
)

// ActingKey is the gin context key holding the models.ActingContext of the caller.
const ActingKey = "acting"

type Claims struct {
	UserID         int64 `json:"user_id"`
	OrganizationID int64 `json:"org_id"`
	IsAdmin        bool  `json:"is_admin"`
	jwt.RegisteredClaims
}

func isPublicPath(path string) bool {
	return strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz") ||
		strings.HasPrefix(path, "/metrics") ||
		strings.HasPrefix(path, "/integrations/telegram/webhook")
}

// AuthMiddleware validates the bearer token and stores the acting context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.UserID <= 0 || claims.OrganizationID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no user or organization"})
			return
		}

		c.Set(ActingKey, models.ActingContext{
			UserID:         claims.UserID,
			OrganizationID: claims.OrganizationID,
			IsAdmin:        claims.IsAdmin,
		})
		c.Next()
	}
}

// NewToken signs claims for the given acting context. Used by tooling and tests.
func NewToken(secret []byte, acting models.ActingContext, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:         acting.UserID,
		OrganizationID: acting.OrganizationID,
		IsAdmin:        acting.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
