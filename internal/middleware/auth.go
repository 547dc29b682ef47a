package middleware

import (
	"context"
	"course_market_backend/internal/config"
	"course_market_backend/internal/model"
	"course_market_backend/internal/util"
	"course_market_backend/pkg/logger"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserLookup 按 id 读取用户，用于拒绝已删除或被封禁账号的旧 token
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// activeUser 校验 token 对应的账号仍然可用
func activeUser(c *gin.Context, users UserLookup, claims *util.Claims) error {
	if users == nil {
		return nil
	}
	user, err := users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUnauthorized
		}
		return err
	}
	if user.IsBlocked {
		return util.ErrUserBlocked
	}
	return nil
}

// AuthMiddleware 要求有效的 Bearer token，且账号未被封禁
func AuthMiddleware(cfg *config.Config, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err), zap.String("path", c.FullPath()))
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if err := activeUser(c, users, claims); err != nil {
			util.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// TryAuthMiddleware 可选登录：token 有效时写入用户，无效、缺失或账号被封禁时按匿名处理
func TryAuthMiddleware(cfg *config.Config, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret); err == nil && activeUser(c, users, claims) == nil {
				c.Set(util.ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

// RoleMiddleware 仅允许列出的角色访问，管理员不自动放行
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		util.Forbidden(c)
		c.Abort()
	}
}
