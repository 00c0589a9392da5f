package server

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	"github.com/smallbiznis/possaas/internal/config"
	"go.uber.org/zap"
)

const (
	HeaderAPIKey   = "X-API-Key"
	contextKeyAuth = "api_key"
)

// APIKeyAuthenticator resolves operator API keys.
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*apikeydomain.APIKey, error)
}

// provideAuthenticator returns nil when API key auth is switched off.
func provideAuthenticator(cfg config.Config, svc apikeydomain.Service, log *zap.Logger) APIKeyAuthenticator {
	if !cfg.APIAuthEnabled {
		log.Warn("api key authentication disabled")
		return nil
	}
	return svc
}

// RequireScope rejects requests without a valid key carrying scope. With
// no authenticator configured every request passes.
func (s *Server) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKeys == nil {
			c.Next()
			return
		}

		raw := presentedKey(c)
		if raw == "" {
			AbortWithError(c, apikeydomain.ErrUnauthorized)
			return
		}
		key, err := s.apiKeys.Authenticate(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !key.Allows(scope) {
			AbortWithError(c, apikeydomain.ErrScopeForbidden)
			return
		}

		c.Set(contextKeyAuth, key.KeyID)
		c.Next()
	}
}

func presentedKey(c *gin.Context) string {
	if raw := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); raw != "" {
		return raw
	}
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
