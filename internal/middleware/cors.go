package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/internal/config"
)

var (
	defaultAllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultAllowedHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", RequestIDHeader}
)

// CORSMiddleware configures Cross-Origin Resource Sharing. The chat widget is
// embedded on third-party sites, so an empty origin list allows any origin.
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     orDefault(cfg.AllowedMethods, defaultAllowedMethods),
		AllowHeaders:     orDefault(cfg.AllowedHeaders, defaultAllowedHeaders),
		ExposeHeaders:    append([]string{RequestIDHeader}, cfg.ExposeHeaders...),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}

	origins := cfg.AllowedOrigins
	switch {
	case len(origins) == 0 || (len(origins) == 1 && origins[0] == "*"):
		if cfg.AllowCredentials {
			corsCfg.AllowOriginFunc = func(string) bool { return true }
		} else {
			corsCfg.AllowAllOrigins = true
		}
	default:
		corsCfg.AllowOriginFunc = func(origin string) bool {
			return isAllowedOrigin(origin, origins)
		}
	}

	return cors.New(corsCfg)
}

// isAllowedOrigin matches exact origins and *.example.com wildcards
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}

		if strings.HasPrefix(allowed, "*.") {
			domain := allowed[1:]
			if strings.HasSuffix(origin, domain) && len(origin) > len(domain) {
				return true
			}
		}
	}
	return false
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
