package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ContextBranchID = "branch_id"
	ContextActorID  = "actor_id"
)

// Claims carried by access tokens. Every token is scoped to one branch;
// all registry and scheduling operations run inside that scope.
type Claims struct {
	BranchID string `json:"branch_id"`
	ActorID  string `json:"actor_id"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate verifies the JWT and sets the branch and actor in context.
// When the optional X-Branch-ID header is present it must match the token
// scope; a mismatch is a cross-branch access attempt.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "missing authorization header",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "invalid authorization format",
			})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "invalid token",
			})
			return
		}

		branchID, err := uuid.Parse(claims.BranchID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "token carries no branch scope",
			})
			return
		}

		if header := c.GetHeader("X-Branch-ID"); header != "" && header != claims.BranchID {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Code:    http.StatusForbidden,
				Message: "branch scope mismatch",
			})
			return
		}

		c.Set(ContextBranchID, branchID)
		if actorID, err := uuid.Parse(claims.ActorID); err == nil {
			c.Set(ContextActorID, actorID)
		}
		c.Next()
	}
}

// BranchID extracts the authenticated branch scope from the context.
func BranchID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextBranchID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// ActorID extracts the authenticated actor from the context.
func ActorID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(ContextActorID)
	if !ok {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
