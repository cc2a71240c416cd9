package middleware

import (
	"strings"

	"learning_path_backend/internal/config"
	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Bearer 令牌并检查登出黑名单，
// 通过后把 Claims 放入上下文
func AuthMiddleware(cfg config.JWTConfig, auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			util.Unauthorized(c, "缺少认证令牌")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := util.ParseJWT(tokenString, cfg.Secret)
		if err != nil {
			util.Unauthorized(c, "认证令牌无效或已过期")
			c.Abort()
			return
		}

		revoked, err := auth.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// 黑名单不可用时放行，令牌本身仍是有效签名
			logger.Log.Warn("Token denylist check failed", zap.Error(err))
		} else if revoked {
			util.Unauthorized(c, "令牌已失效，请重新登录")
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}
