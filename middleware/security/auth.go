package security

import (
	"context"
	"net/http"
	"strings"

	"TMProject/global"
	"TMProject/logger"
	"TMProject/service/storage"
	"TMProject/tools/errs"
	"TMProject/tools/security"

	"github.com/gin-gonic/gin"
)

// —— context key ——
// 后续 handler 统一用这俩 key 读取 principal
const (
	TMCtxUserIDKey = "tmUserID" // string
	TMCtxRoleKey   = "tmRole"   // string
)

type Options struct {
	// 读取哪个请求头
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true

	// SessionCheck 默认走 redis 会话存储，可注入替身
	SessionCheck func(ctx context.Context, user, tokenHash string) (bool, error)
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
		SessionCheck:              storage.SessionCheck,
	}
}

// Middleware 校验令牌并把 principal 写入 gin context。
// redis 在线时额外校验 token hash 是否为活跃会话（登出即失效）。
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.SessionCheck == nil {
		opts.SessionCheck = storage.SessionCheck
	}
	jwtOpts := security.DefaultOptions(global.GetJwtSecret())
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		// 兼容 Authorization: Bearer xxx
		if opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}

		claims, err := security.Verify(jwtOpts, token)
		if err != nil || claims.Subject() == "" {
			abortUnauthorized(c, "invalid token")
			return
		}

		ok, err := opts.SessionCheck(c.Request.Context(), claims.Subject(), security.HashToken(token))
		if err != nil {
			// 会话存储故障是基础设施问题，不是鉴权失败
			logger.Error("session check: " + err.Error())
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, errs.ErrStorageUnavailable)
			return
		}
		if !ok {
			abortUnauthorized(c, "session expired")
			return
		}

		c.Set(TMCtxUserIDKey, claims.Subject())
		c.Set(TMCtxRoleKey, claims.Role())
		c.Next()
	}
}

// CurrentUser 从 gin context 读取已认证用户 id
func CurrentUser(c *gin.Context) (string, bool) {
	v, ok := c.Get(TMCtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func CurrentRole(c *gin.Context) string {
	return c.GetString(TMCtxRoleKey)
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthenticated.WithDetail(detail))
}
