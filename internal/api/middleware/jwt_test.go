package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tracehub.io/tracehub/internal/pkg/errors"
)

var (
	currentKey  = []byte("current-key-0123456789abcdef012345")
	previousKey = []byte("previous-key-0123456789abcdef01234")
)

func testJWTConfig() JWTConfig {
	return JWTConfig{SigningKey: currentKey, Issuer: "tracehub", ExpiresIn: time.Hour}
}

func signed(t *testing.T, cfg JWTConfig, userID string, tenants ...string) string {
	t.Helper()
	token, _, err := GenerateToken(cfg, userID, tenants)
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	good := signed(t, testJWTConfig(), "u-grower", "t-1")

	claims, err := testJWTConfig().ValidateToken(good)
	require.NoError(t, err)
	assert.Equal(t, "u-grower", claims.UserID)
	assert.Equal(t, []string{"t-1"}, claims.Tenants)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.NotBefore)
}

func TestValidateToken_Rejections(t *testing.T) {
	now := time.Now()
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tracehub",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:           "u-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "tracehub"},
	}).SignedString(currentKey)
	require.NoError(t, err)

	expiredCfg := testJWTConfig()
	expiredCfg.ExpiresIn = -time.Minute

	tests := []struct {
		name    string
		cfg     JWTConfig
		token   string
		wantErr []error
	}{
		{"other issuer", JWTConfig{SigningKey: currentKey, Issuer: "someone-else"}, signed(t, testJWTConfig(), "u-1"), []error{jwt.ErrTokenInvalidIssuer}},
		{"alg none", testJWTConfig(), none, []error{jwt.ErrTokenSignatureInvalid}},
		{"expired", testJWTConfig(), signed(t, expiredCfg, "u-1"), []error{jwt.ErrTokenExpired}},
		{"no exp claim", testJWTConfig(), noExpiry, []error{jwt.ErrTokenRequiredClaimMissing}},
		{"no user", testJWTConfig(), signed(t, testJWTConfig(), ""), []error{jwt.ErrTokenInvalidClaims, ErrJWTNoUser}},
		{"unknown key", testJWTConfig(), signed(t, JWTConfig{SigningKey: previousKey, Issuer: "tracehub", ExpiresIn: time.Hour}, "u-1"), []error{jwt.ErrTokenSignatureInvalid}},
		{"no signing key", JWTConfig{Issuer: "tracehub"}, signed(t, testJWTConfig(), "u-1"), []error{jwt.ErrTokenUnverifiable, ErrJWTSigningKeyMissing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.ValidateToken(tt.token)
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestValidateToken_KeyRotation(t *testing.T) {
	old := signed(t, JWTConfig{SigningKey: previousKey, Issuer: "tracehub", ExpiresIn: time.Hour}, "u-packer")

	cfg := testJWTConfig()
	cfg.VerificationKeys = [][]byte{previousKey}
	claims, err := cfg.ValidateToken(old)
	require.NoError(t, err)
	assert.Equal(t, "u-packer", claims.UserID)
}

func TestJWTClaimsMemberOf(t *testing.T) {
	claims := &JWTClaims{Tenants: []string{"t-1"}}
	assert.True(t, claims.MemberOf(""))
	assert.True(t, claims.MemberOf("t-1"))
	assert.False(t, claims.MemberOf("t-2"))
}

func TestJWTAuth(t *testing.T) {
	cfg := testJWTConfig()
	expiredCfg := cfg
	expiredCfg.ExpiresIn = -time.Minute

	router := gin.New()
	router.Use(ErrorHandler(), JWTAuth(cfg))
	router.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c.Request.Context()))
	})

	tests := []struct {
		name     string
		header   string
		status   int
		wantCode string
		body     string
	}{
		{name: "valid", header: "Bearer " + signed(t, cfg, "u-1"), status: http.StatusOK, body: "u-1"},
		{name: "lowercase scheme", header: "bearer " + signed(t, cfg, "u-2"), status: http.StatusOK, body: "u-2"},
		{name: "missing", status: http.StatusUnauthorized, wantCode: apperrors.CodeUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, wantCode: apperrors.CodeUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized, wantCode: apperrors.CodeUnauthorized},
		{name: "garbage", header: "Bearer not-a-token", status: http.StatusUnauthorized, wantCode: apperrors.CodeTokenInvalid},
		{name: "expired", header: "Bearer " + signed(t, expiredCfg, "u-1"), status: http.StatusUnauthorized, wantCode: apperrors.CodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				require.Equal(t, tt.body, w.Body.String())
			}
			if tt.wantCode != "" {
				var body apperrors.AppError
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Equal(t, tt.wantCode, body.Code)
			}
		})
	}
}
