package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tracehub.io/tracehub/internal/pkg/errors"
	"tracehub.io/tracehub/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantCode   string
		check      func(t *testing.T, body apperrors.AppError, raw string)
	}{
		{
			name:       "no error",
			handler:    func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"updated": 2}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found carries params",
			handler:    func(c *gin.Context) { _ = c.Error(apperrors.ErrNotificationNotFound("n-1")) },
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.CodeNotificationNotFound,
			check: func(t *testing.T, body apperrors.AppError, _ string) {
				assert.Equal(t, "n-1", body.Params["notification_id"])
			},
		},
		{
			name:       "field errors",
			handler:    func(c *gin.Context) { _ = c.Error(apperrors.ErrMarkReadSelector()) },
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeValidationFailed,
			check: func(t *testing.T, body apperrors.AppError, _ string) {
				assert.Len(t, body.FieldErrors, 2)
			},
		},
		{
			name:       "plain error is internal",
			handler:    func(c *gin.Context) { _ = c.Error(fmt.Errorf("ent: notification query: connection reset")) },
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternal,
			check: func(t *testing.T, _ apperrors.AppError, raw string) {
				assert.NotContains(t, raw, "connection reset")
			},
		},
		{
			name: "wrapped app error keeps its status and hides the cause",
			handler: func(c *gin.Context) {
				cause := fmt.Errorf("pq: relation \"notifications\" does not exist")
				_ = c.Error(fmt.Errorf("list: %w", apperrors.Wrap(cause, apperrors.CodeTokenInvalid, "invalid token", http.StatusUnauthorized)))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   apperrors.CodeTokenInvalid,
			check: func(t *testing.T, _ apperrors.AppError, raw string) {
				assert.False(t, strings.Contains(raw, "relation"), "body leaks cause: %s", raw)
			},
		},
		{
			name: "last error wins",
			handler: func(c *gin.Context) {
				_ = c.Error(fmt.Errorf("first"))
				_ = c.Error(apperrors.ErrTenantRequired())
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeTenantRequired,
		},
		{
			name: "written response is left alone",
			handler: func(c *gin.Context) {
				c.String(http.StatusAccepted, "queued")
				_ = c.Error(fmt.Errorf("late failure"))
			},
			wantStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler())
			router.GET("/x", tt.handler)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				return
			}
			var body apperrors.AppError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
			if tt.check != nil {
				tt.check(t, body, w.Body.String())
			}
		})
	}
}
