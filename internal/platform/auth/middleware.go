package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
	CtxNameKey   = "user_name"
)

var unauthorized = gin.H{"error": "Unauthorized"}

// RequireAuth accepts "Authorization: Bearer <token>" or the session cookie,
// verifies the token and puts sub/role/name into the context. Every failure
// answers 401 with the same body.
func RequireAuth(secret []byte, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := tokenFrom(c, cookieName)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		claims, ok := parseToken(secret, tokenStr)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}
		role, _ := claims["role"].(string)
		name, _ := claims["name"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Set(CtxNameKey, name)
		c.Next()
	}
}

// RequireRole: e.g. admin-only routes, placed after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if _, allowed := roleSet[role]; !allowed || role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func tokenFrom(c *gin.Context, cookieName string) (string, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		tok := strings.TrimSpace(parts[1])
		return tok, tok != ""
	}
	if cookieName == "" {
		return "", false
	}
	tok, err := c.Cookie(cookieName)
	if err != nil || tok == "" {
		return "", false
	}
	return tok, true
}

func parseToken(secret []byte, tokenStr string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		// pin the algorithm ("none" and RS/HS confusion)
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || token == nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}
