package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

const (
	contextCallerKey = "caller"
	contextClaimsKey = "claims"
)

// Identifier resolves bearer tokens to callers.
type Identifier interface {
	Identify(ctx context.Context, token string) (services.CallerContext, *utils.Claims, error)
}

func bearerToken(ctx *gin.Context) (string, error) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", services.Unauthorized("authorization header missing")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", services.Unauthorized("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", services.Unauthorized("empty bearer token")
	}
	return token, nil
}

// AuthRequired rejects requests without a valid token of an active, approved account.
func AuthRequired(id Identifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := bearerToken(ctx)
		if err != nil {
			utils.Fail(ctx, err)
			ctx.Abort()
			return
		}
		caller, claims, err := id.Identify(ctx.Request.Context(), token)
		if err != nil {
			utils.Fail(ctx, err)
			ctx.Abort()
			return
		}
		ctx.Set(contextCallerKey, caller)
		ctx.Set(contextClaimsKey, claims)
		ctx.Next()
	}
}

// AuthOptional identifies the caller when a usable token is sent and carries on
// anonymously otherwise.
func AuthOptional(id Identifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token, err := bearerToken(ctx); err == nil {
			if caller, claims, err := id.Identify(ctx.Request.Context(), token); err == nil {
				ctx.Set(contextCallerKey, caller)
				ctx.Set(contextClaimsKey, claims)
			}
		}
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired. Non-admin callers get 401, the
// same answer the account managers give.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !Caller(ctx).IsAdmin() {
			utils.Fail(ctx, services.Unauthorized("administrator role required"))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// Caller returns the identified caller, or services.Anonymous.
func Caller(ctx *gin.Context) services.CallerContext {
	if v, ok := ctx.Get(contextCallerKey); ok {
		if c, ok := v.(services.CallerContext); ok {
			return c
		}
	}
	return services.Anonymous
}

// Claims returns the token claims of an identified caller.
func Claims(ctx *gin.Context) *utils.Claims {
	if v, ok := ctx.Get(contextClaimsKey); ok {
		if c, ok := v.(*utils.Claims); ok {
			return c
		}
	}
	return nil
}
