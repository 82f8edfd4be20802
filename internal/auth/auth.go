package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const contextKey = "auth"

type AuthContext struct {
	UserID      string
	OrgID       *string
	Roles       []string
	Permissions []string
	Email       *string
	Name        *string
}

// Config holds the claims a token must carry to be accepted.
type Config struct {
	Issuer   string
	Audience string
}

// KeySource supplies the key set tokens are verified against.
type KeySource interface {
	KeySet(ctx context.Context) (jwk.Set, error)
}

// JWKSClient keeps a remote JWKS in a background-refreshed cache.
type JWKSClient struct {
	url   string
	cache *jwk.Cache
}

func NewJWKSClient(ctx context.Context, url string, cacheTTLSeconds int) (*JWKSClient, error) {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(url, jwk.WithMinRefreshInterval(ttl)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS url: %w", err)
	}

	return &JWKSClient{url: url, cache: cache}, nil
}

func (c *JWKSClient) KeySet(ctx context.Context) (jwk.Set, error) {
	set, err := c.cache.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	return set, nil
}

// StaticKeySource serves a fixed key set.
type StaticKeySource struct {
	Set jwk.Set
}

func (s StaticKeySource) KeySet(context.Context) (jwk.Set, error) {
	return s.Set, nil
}

type claims struct {
	jwt.RegisteredClaims
	OrgID       string   `json:"org_id,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
}

func VerifyToken(ctx context.Context, tokenString string, keys KeySource, config Config) (*AuthContext, error) {
	keyFunc := func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("token missing kid in header")
		}

		set, err := keys.KeySet(ctx)
		if err != nil {
			return nil, err
		}

		key, found := set.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("key not found for kid: %s", kid)
		}

		var publicKey any
		if err := key.Raw(&publicKey); err != nil {
			return nil, fmt.Errorf("failed to get public key: %w", err)
		}
		return publicKey, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(config.Issuer),
		jwt.WithExpirationRequired(),
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	var c claims
	if _, err := jwt.ParseWithClaims(tokenString, &c, keyFunc, opts...); err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	if c.Subject == "" {
		return nil, errors.New("token missing sub claim")
	}

	return &AuthContext{
		UserID:      c.Subject,
		OrgID:       optional(c.OrgID),
		Roles:       c.Roles,
		Permissions: c.Permissions,
		Email:       optional(c.Email),
		Name:        optional(c.Name),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func AuthMiddleware(keys KeySource, config Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
			return
		}

		authContext, err := VerifyToken(c.Request.Context(), token, keys, config)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "details": err.Error()})
			return
		}

		c.Set(contextKey, authContext)
		c.Next()
	}
}

func RequirePermissions(requiredPermissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authContext, ok := GetAuthContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		for _, required := range requiredPermissions {
			if !slices.Contains(authContext.Permissions, required) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":    "Insufficient permissions",
					"required": requiredPermissions,
				})
				return
			}
		}

		c.Next()
	}
}

func GetAuthContext(c *gin.Context) (*AuthContext, bool) {
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, false
	}

	ctx, ok := value.(*AuthContext)
	return ctx, ok
}
