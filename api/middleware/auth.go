/*
 * @module api/middleware/auth
 * @description Bearer Token 鉴权中间件，解析访问令牌并注入归属范围
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference DESIGN.md
 * @stateFlow Token提取 -> Token验证 -> 上下文注入 -> 下一个处理器
 * @rules 可选鉴权：缺少或无效的令牌按匿名处理（归属范围为空串）；RequireUser 要求有效令牌
 * @dependencies github.com/go-chi/render, service/auth
 * @refs api/routes.go, service/auth/auth_service.go
 */

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"watchtower-service/service/auth"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	// TokenKey Token在上下文中的键
	TokenKey ContextKey = "token"
	// UserInfoKey 用户信息在上下文中的键
	UserInfoKey ContextKey = "user_info"
)

// TokenParser 令牌解析
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// OptionalAuth 解析 Authorization 头，成功时注入用户信息，失败时按匿名继续
func OptionalAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				slog.Debug("令牌无效，按匿名请求处理", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), TokenKey, token)
			ctx = context.WithValue(ctx, UserInfoKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser 要求请求携带有效令牌
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			msg := "Invalid token"
			if bearerToken(r) == "" {
				msg = "Not authenticated"
			}
			respondUnauthorized(w, r, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext 获取当前用户声明
func UserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserInfoKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// OwnerScope 当前请求的数据归属范围，匿名请求为空串
func OwnerScope(ctx context.Context) string {
	if claims, ok := UserFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusUnauthorized,
		"msg":    msg,
	})
}
