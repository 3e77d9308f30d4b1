package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "tracehub.io/tracehub/internal/pkg/errors"
)

var (
	// ErrJWTSigningKeyMissing is returned when no signing key is configured.
	ErrJWTSigningKeyMissing = errors.New("jwt signing key is not configured")
	// ErrJWTNoUser is returned for a well-signed token without user_id.
	ErrJWTNoUser = errors.New("token has no user_id")
)

// clockSkew is tolerated on exp, nbf and iat.
const clockSkew = 30 * time.Second

// JWTClaims identifies the caller and the tenants they belong to.
type JWTClaims struct {
	UserID  string   `json:"user_id"`
	Tenants []string `json:"tenants,omitempty"`
	jwt.RegisteredClaims
}

// MemberOf reports whether the caller may act in tenantID. Acting in no
// tenant is always allowed.
func (c *JWTClaims) MemberOf(tenantID string) bool {
	return tenantID == "" || slices.Contains(c.Tenants, tenantID)
}

// JWTConfig holds the HS256 keys. Tokens signed with any VerificationKeys
// entry are also accepted, which lets SigningKey rotate without logging
// everyone out.
type JWTConfig struct {
	SigningKey       []byte
	VerificationKeys [][]byte
	Issuer           string
	ExpiresIn        time.Duration
}

// GenerateToken signs a token for userID scoped to tenants. It returns the
// token and its expiry.
func GenerateToken(cfg JWTConfig, userID string, tenants []string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(cfg.ExpiresIn)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:  userID,
		Tenants: tenants,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (cfg JWTConfig) parser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return jwt.NewParser(opts...)
}

// ValidateToken verifies tokenString against SigningKey and then each
// VerificationKeys entry. Only a bad signature moves on to the next key.
func (cfg JWTConfig) ValidateToken(tokenString string) (*JWTClaims, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("%w: %w", jwt.ErrTokenUnverifiable, ErrJWTSigningKeyMissing)
	}
	p := cfg.parser()
	keys := append([][]byte{cfg.SigningKey}, cfg.VerificationKeys...)

	var err error
	for _, key := range keys {
		claims := &JWTClaims{}
		_, err = p.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) { return key, nil })
		if err == nil {
			if claims.UserID == "" {
				return nil, fmt.Errorf("%w: %w", jwt.ErrTokenInvalidClaims, ErrJWTNoUser)
			}
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, err
		}
	}
	return nil, err
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(header string) (string, *apperrors.AppError) {
	if header == "" {
		return "", apperrors.Unauthorized(apperrors.CodeUnauthorized, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.Unauthorized(apperrors.CodeUnauthorized, "invalid authorization header format")
	}
	return token, nil
}

// JWTAuth authenticates the request and stores the caller in its context.
// Expired tokens get TOKEN_EXPIRED so clients know to refresh.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, appErr := bearerToken(c.GetHeader("Authorization"))
		if appErr != nil {
			abort(c, appErr)
			return
		}

		claims, err := cfg.ValidateToken(token)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			abort(c, apperrors.Wrap(err, apperrors.CodeTokenExpired, "token expired", http.StatusUnauthorized))
			return
		case err != nil:
			abort(c, apperrors.Wrap(err, apperrors.CodeTokenInvalid, "invalid token", http.StatusUnauthorized))
			return
		}

		c.Set(ctxKeyClaims, claims)
		c.Request = c.Request.WithContext(SetUserContext(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// claimsFrom returns the claims JWTAuth stored, or nil.
func claimsFrom(c *gin.Context) *JWTClaims {
	v, _ := c.Get(ctxKeyClaims)
	claims, _ := v.(*JWTClaims)
	return claims
}

// abort records err for ErrorHandler and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
