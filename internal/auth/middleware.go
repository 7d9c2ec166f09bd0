package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/logger"
	"github.com/d60-Lab/creation-studio/pkg/response"
)

// MiddlewareConfig controls auth enforcement behavior.
type MiddlewareConfig struct {
	// Disabled skips verification and injects LocalIdentity. Local development only.
	Disabled      bool
	LocalIdentity Identity
}

// Middleware enforces bearer token auth and injects the identity into the request.
func Middleware(verifier *Verifier, cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Disabled {
			local := cfg.LocalIdentity
			if local.UserID == "" {
				local.UserID = "local-dev"
			}
			setIdentity(c, &local)
			c.Next()
			return
		}

		if verifier == nil {
			response.Error(c, errcode.Unauthorized("Authentication is not configured"))
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			logger.L().Debug("auth failure: missing authorization header", zap.String("path", c.Request.URL.Path))
			response.Error(c, errcode.Unauthorized("Not authenticated"))
			return
		}

		token, ok := extractBearerToken(header)
		if !ok {
			logger.L().Debug("auth failure: malformed authorization header", zap.String("path", c.Request.URL.Path))
			response.Error(c, errcode.Unauthorized("Invalid authorization header"))
			return
		}

		id, err := verifier.Verify(token)
		if err != nil {
			logger.L().Info("auth failure: token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.Error(c, errcode.Unauthorized("Invalid token"))
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

func setIdentity(c *gin.Context, id *Identity) {
	c.Set(GinIdentityKey, id)
	c.Set(logger.UserIDKey, id.UserID)
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
