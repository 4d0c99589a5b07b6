package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

const (
	organizationIDKey = "organization_id"
	subjectKey        = "subject"
	tokenClaimsKey    = "token_claims"
)

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// JWTMiddleware handles JWT authentication
type JWTMiddleware struct {
	validator TokenValidator
}

// NewJWTMiddleware creates a new JWT middleware
func NewJWTMiddleware(validator TokenValidator) *JWTMiddleware {
	return &JWTMiddleware{
		validator: validator,
	}
}

// AuthRequired enforces JWT authentication
func (m *JWTMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		setClaimsContext(c, claims)
		c.Next()
	}
}

// RequireOrganization rejects callers whose token carries no organization.
// It must run after AuthRequired.
func (m *JWTMiddleware) RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetOrganizationID(c) == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, services.ErrOrganizationRequired.Message)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func setClaimsContext(c *gin.Context, claims *services.Claims) {
	c.Set(organizationIDKey, claims.OrganizationID)
	c.Set(subjectKey, claims.Subject)
	c.Set(tokenClaimsKey, claims)

	ctx := utils.WithOrganizationID(c.Request.Context(), claims.OrganizationID)
	c.Request = c.Request.WithContext(ctx)
}

// GetOrganizationID returns the organization of the authenticated caller
func GetOrganizationID(c *gin.Context) string {
	return c.GetString(organizationIDKey)
}

// GetClaims returns the validated token claims, if any
func GetClaims(c *gin.Context) *services.Claims {
	claims, exists := c.Get(tokenClaimsKey)
	if !exists {
		return nil
	}
	tokenClaims, _ := claims.(*services.Claims)
	return tokenClaims
}
