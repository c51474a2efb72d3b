package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"photo-sku-backend/internal/apperrors"
	"photo-sku-backend/internal/config"
	"photo-sku-backend/internal/models"
)

const OperatorIDKey = "operator_id"

// AuthMiddleware checks an HS256 bearer token signed with AUTH_JWT_SECRET and
// stores its sub claim under OperatorIDKey. Browsers cannot set headers on
// EventSource requests, so an access_token query parameter is accepted too.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	secret := []byte(cfg.Auth.JWTSecret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				unauthorized(c, "token has expired")
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				unauthorized(c, "token signature is invalid")
			case errors.Is(err, jwt.ErrTokenMalformed):
				unauthorized(c, "token is malformed")
			default:
				unauthorized(c, err.Error())
			}
			return
		}
		if !token.Valid {
			unauthorized(c, "invalid token")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			unauthorized(c, "missing subject in token")
			return
		}

		c.Set(OperatorIDKey, sub)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("access_token"); q != "" {
			return q, nil
		}
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   apperrors.MetadataFor(apperrors.CodeUnauthorized).PublicMessage,
		Message: message,
		Code:    string(apperrors.CodeUnauthorized),
	})
}
