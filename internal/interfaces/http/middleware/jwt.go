package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTOperatorKey = "jwt_operator"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTAuth creates operator token authentication middleware for the admin API
func JWTAuth(tokens *auth.TokenService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logger.Warn("operator token rejected",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			code := dto.ErrCodeTokenInvalid
			if err == auth.ErrExpiredToken {
				code = dto.ErrCodeTokenExpired
			}
			abortUnauthorized(c, code, "Token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTOperatorKey, claims.Subject)
		c.Next()
	}
}

// GetOperator retrieves the authenticated operator from the gin context
func GetOperator(c *gin.Context) string {
	if operator, exists := c.Get(JWTOperatorKey); exists {
		if s, ok := operator.(string); ok {
			return s
		}
	}
	return ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, requestID))
}
