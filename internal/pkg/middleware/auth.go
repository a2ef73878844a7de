package middleware

import (
	"context"
	"net/http"
	"seafood_shop/internal/domain/user/model"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上下文中的认证信息
const (
	CtxUserID = "userID"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// AccountGuard 返回账号是否被锁定，由用户模块在初始化时注入
type AccountGuard func(ctx context.Context, userID string) (locked bool, err error)

var accountGuard AccountGuard

func SetAccountGuard(g AccountGuard) {
	accountGuard = g
}

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseTyped(parts[1], utils.TokenTypeAccess)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		if accountGuard != nil {
			locked, err := accountGuard(c.Request.Context(), claims.UserID)
			if err != nil {
				logger.Log.Warn("account guard failed", zap.String("user_id", claims.UserID), zap.Error(err))
			}
			if locked {
				response.Error(c, http.StatusLocked, response.ErrAccountLocked, "Account is locked")
				c.Abort()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRoles 要求当前用户拥有任一角色，需挂在 AuthMiddleware 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		c.Abort()
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}

// EmployeeMiddleware 员工或管理员
func EmployeeMiddleware() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin, model.RoleStaff)
}

func CurrentUserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

func CurrentRole(c *gin.Context) string {
	return c.GetString(CtxRole)
}

func IsAdmin(c *gin.Context) bool {
	return CurrentRole(c) == model.RoleAdmin
}

// IsOwnerOrAdmin 资源属于当前用户或当前用户为管理员
func IsOwnerOrAdmin(c *gin.Context, ownerID string) bool {
	return IsAdmin(c) || (ownerID != "" && CurrentUserID(c) == ownerID)
}
